package paysliperrors

import (
	"net/http"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/apperror"
)

var (
	ErrPayslipNotFound = apperror.New(
		apperror.CodeNotFound,
		"payslip not found",
		http.StatusNotFound,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"period_start must be before or equal period_end",
		http.StatusBadRequest,
	)
	ErrNegativeAmount = apperror.New(
		apperror.CodeInvalidInput,
		"monetary fields cannot be negative",
		http.StatusBadRequest,
	)
	ErrNetPayMismatch = apperror.New(
		apperror.CodeInvalidInput,
		"expected_net_pay does not match gross + allowances - deductions",
		http.StatusBadRequest,
	)
	ErrInvalidStatusFilter = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payslip status filter",
		http.StatusBadRequest,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"payslip status does not permit this transition",
		http.StatusConflict,
	)
	ErrSignRequiresPublishedOrPaid = apperror.New(
		apperror.CodeInvalidState,
		"payslip can only be signed while PUBLISHED or PAID",
		http.StatusConflict,
	)
	ErrAlreadySigned = apperror.New(
		apperror.CodeInvalidState,
		"payslip is already signed",
		http.StatusConflict,
	)
	ErrAcknowledgeRequiresPaid = apperror.New(
		apperror.CodeInvalidState,
		"payslip can only be acknowledged once PAID",
		http.StatusConflict,
	)
	ErrAcknowledgeRequiresSignature = apperror.New(
		apperror.CodeInvalidState,
		"payslip must be signed before acknowledgement",
		http.StatusConflict,
	)
	ErrAlreadyAcknowledged = apperror.New(
		apperror.CodeInvalidState,
		"payslip is already acknowledged",
		http.StatusConflict,
	)
)
