package settlementerrors

import (
	"net/http"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/apperror"
)

var (
	ErrFinalPayNotFound = apperror.New(
		apperror.CodeNotFound,
		"no final pay computation for employee",
		http.StatusNotFound,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found in directory",
		http.StatusNotFound,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrNegativeInput = apperror.New(
		apperror.CodeInvalidInput,
		"overtime hours, leave days and loan balance must be non-negative",
		http.StatusBadRequest,
	)
)
