package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the request is structurally valid but conflicts with the current
// ledger state (period status, reversal state, account usage).
var ErrConflict = errors.New("state conflict")

// ErrForbidden indicates the caller is not allowed to perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrIntegrity indicates a ledger invariant was found broken. Never expected in correct operation.
var ErrIntegrity = errors.New("ledger integrity check failed")

// ErrInternal is the catch-all for infrastructure failures.
var ErrInternal = errors.New("internal error")

// AppError wraps an infrastructure error with an HTTP-ish status code and a message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the wrapped error, and ErrInternal for 5xx codes.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Code >= 500 {
		errs = append(errs, ErrInternal)
	}
	return errs
}
