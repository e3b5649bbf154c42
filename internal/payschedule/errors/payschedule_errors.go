package payscheduleerrors

import (
	"net/http"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/apperror"
)

var (
	ErrInvalidFrequency = apperror.New(
		apperror.CodeInvalidInput,
		"frequency must be MONTHLY or SEMI_MONTHLY",
		http.StatusBadRequest,
	)
	ErrInvalidDay = apperror.New(
		apperror.CodeInvalidInput,
		"cutoff day and pay day must fall within 1 to 31",
		http.StatusBadRequest,
	)
)
