package adjustmenterrors

import (
	"net/http"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/apperror"
)

var (
	ErrAdjustmentNotFound = apperror.New(
		apperror.CodeNotFound,
		"adjustment not found",
		http.StatusNotFound,
	)
	ErrInvalidAdjustmentType = apperror.New(
		apperror.CodeInvalidInput,
		"invalid adjustment type",
		http.StatusBadRequest,
	)
	ErrAmountSignMismatch = apperror.New(
		apperror.CodeInvalidInput,
		"amount sign does not match adjustment type",
		http.StatusBadRequest,
	)
	ErrZeroAmount = apperror.New(
		apperror.CodeInvalidInput,
		"adjustment amount must be non-zero",
		http.StatusBadRequest,
	)
	ErrReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"adjustment reason is required",
		http.StatusBadRequest,
	)
	ErrReferencePayslipNotFound = apperror.New(
		apperror.CodeNotFound,
		"referenced payslip not found",
		http.StatusNotFound,
	)
	ErrApproveRequiresPending = apperror.New(
		apperror.CodeInvalidState,
		"adjustment can only be approved from PENDING",
		http.StatusConflict,
	)
	ErrRejectRequiresPending = apperror.New(
		apperror.CodeInvalidState,
		"adjustment can only be rejected from PENDING",
		http.StatusConflict,
	)
	ErrApplyRequiresApproved = apperror.New(
		apperror.CodeInvalidState,
		"adjustment can only be applied from APPROVED",
		http.StatusConflict,
	)
)
