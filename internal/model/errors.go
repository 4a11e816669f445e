package model

import (
	"errors"
	"fmt"
)

// ErrorCode classifies domain errors for the chat surface and logs.
type ErrorCode string

const (
	ErrCodeNotFound  ErrorCode = "NOT_FOUND"
	ErrCodeInvalid   ErrorCode = "INVALID"
	ErrCodeConflict  ErrorCode = "CONFLICT"
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
	ErrCodeInternal  ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error carrying the same code, so errors.Is(err, ErrInvalid) works
// for every invalid-input error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

var (
	// ErrInvalid matches every ValidationError via errors.Is.
	ErrInvalid       = &Error{Code: ErrCodeInvalid}
	ErrTaskNotFound  = NewError(ErrCodeNotFound, "task not found")
	ErrEventNotFound = NewError(ErrCodeNotFound, "event not found")
	ErrUserNotFound  = NewError(ErrCodeNotFound, "user not found")
	ErrForbidden     = &Error{Code: ErrCodeForbidden}
)

// ValidationError reports input rejected at construction time.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Invalid builds a ValidationError with a formatted message.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Forbidden reports a permission failure for the given action.
func Forbidden(action string) error {
	return NewError(ErrCodeForbidden, "not allowed to "+action)
}

// IsCode reports whether err carries the given domain code.
func IsCode(err error, code ErrorCode) bool {
	if code == ErrCodeInvalid {
		var v *ValidationError
		if errors.As(err, &v) {
			return true
		}
	}
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
