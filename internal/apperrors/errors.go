// Package apperrors defines the error kinds shared by the ledger, the query
// layer and the HTTP adapter.
package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid state")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
)

// Error carries one of the kinds above plus a message for the caller.
type Error struct {
	Kind    error
	Message string
}

// Error implements error
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "unknown error"
}

// Unwrap returns the kind so errors.Is matches it
func (e *Error) Unwrap() error {
	return e.Kind
}

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown id reference
func NotFound(format string, args ...any) error {
	return newf(ErrNotFound, format, args...)
}

// InvalidState reports an operation on a record in the wrong status
func InvalidState(format string, args ...any) error {
	return newf(ErrInvalidState, format, args...)
}

// InsufficientFunds reports a debit larger than the balance
func InsufficientFunds(format string, args ...any) error {
	return newf(ErrInsufficientFunds, format, args...)
}

// Validation reports bad input
func Validation(format string, args ...any) error {
	return newf(ErrValidation, format, args...)
}

// Message returns the caller-facing text of err
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}
