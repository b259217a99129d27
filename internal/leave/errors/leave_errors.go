package leaveerrors

import (
	"fmt"
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrDraftNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave draft not found, initialise it first",
		http.StatusNotFound,
	)
	ErrEmailRequired = apperror.New(
		apperror.CodeInvalidInput,
		"email is required",
		http.StatusBadRequest,
	)
	ErrInvalidEmail = apperror.New(
		apperror.CodeInvalidInput,
		"invalid email format",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected DD-MM-YYYY or YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrNegativeDays = apperror.New(
		apperror.CodeInvalidInput,
		"days must be a non-negative integer",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
)

// InvalidDate names the offending field in the message; errors.Is still
// matches ErrInvalidDateFormat.
func InvalidDate(field, value string) error {
	return apperror.Wrap(
		ErrInvalidDateFormat,
		apperror.CodeInvalidInput,
		fmt.Sprintf("%s: invalid date %q, expected DD-MM-YYYY or YYYY-MM-DD", field, value),
		http.StatusBadRequest,
	).WithDetails(map[string]string{"field": field, "value": value})
}

func NegativeDays(value int) error {
	return ErrNegativeDays.WithDetails(map[string]any{"field": "days", "value": value})
}
