package apperror

import (
	"errors"
	"net/http"
)

// AppError is an error that knows which HTTP status it should be reported with.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Shared errors for access checks done in handlers.
var (
	ErrUnauthorized = New(http.StatusUnauthorized, "unauthorized")
	ErrForbidden    = New(http.StatusForbidden, "forbidden")
)

// Detailer is implemented by errors that carry structured data the caller
// should see next to the message, e.g. the ids of clashing reservations.
type Detailer interface {
	ErrorDetails() any
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// StatusOf returns the HTTP status attached to err, or 500 when err carries none.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
