package payrollrunerrors

import (
	"net/http"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/apperror"
)

var (
	ErrRunNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll run not found",
		http.StatusNotFound,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid run date, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidRunType = apperror.New(
		apperror.CodeInvalidInput,
		"invalid run type",
		http.StatusBadRequest,
	)
	ErrInvalidPayslipID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payslip id in membership list",
		http.StatusBadRequest,
	)
	ErrValidateRequiresDraft = apperror.New(
		apperror.CodeInvalidState,
		"payroll run can only be validated from DRAFT",
		http.StatusConflict,
	)
	ErrLockRequiresDraftOrValidated = apperror.New(
		apperror.CodeInvalidState,
		"payroll run can only be locked from DRAFT or VALIDATED",
		http.StatusConflict,
	)
	ErrPublishRequiresLocked = apperror.New(
		apperror.CodeInvalidState,
		"payroll run must be locked before publishing",
		http.StatusConflict,
	)
	ErrAlreadyPublished = apperror.New(
		apperror.CodeInvalidState,
		"payroll run is already published",
		http.StatusConflict,
	)
	ErrMarkPaidRequiresPublished = apperror.New(
		apperror.CodeInvalidState,
		"payroll run can only be marked paid from PUBLISHED",
		http.StatusConflict,
	)
)
