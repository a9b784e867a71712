package store

import (
	"fmt"
	"net/http"
)

// Error is a persistence error with an HTTP status code hint.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same code and message, so sentinels
// survive WithCause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Message == e.Message
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	// ErrTxConflict is returned when a transaction kept losing to concurrent
	// commits and gave up retrying.
	ErrTxConflict = &Error{
		Code:    http.StatusConflict,
		Message: "transaction conflict",
	}

	// ErrReadOnly is returned by write methods called inside View.
	ErrReadOnly = &Error{
		Code:    http.StatusInternalServerError,
		Message: "write attempted in read-only transaction",
	}
)
