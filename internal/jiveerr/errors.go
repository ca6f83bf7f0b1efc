// Package jiveerr defines the structured error categories returned in
// every tool response envelope (spec.md §7).
package jiveerr

import (
	"errors"
	"fmt"
)

// Code is one of the error categories surfaced in the envelope's error_code.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeInvalidHierarchy  Code = "INVALID_HIERARCHY"
	CodeCircularDep       Code = "CIRCULAR_DEPENDENCY"
	CodeMissingDep        Code = "MISSING_DEPENDENCY"
	CodeStorageError      Code = "STORAGE_ERROR"
	CodeStorageUnavail    Code = "STORAGE_UNAVAILABLE"
	CodeCancelled         Code = "CANCELLED"
	CodeTimeout           Code = "TIMEOUT"
	CodeTooManyRequests   Code = "TOO_MANY_REQUESTS"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeToolNotFound      Code = "TOOL_NOT_FOUND"
)

// Error is the structured value every core component reports instead
// of throwing. Handlers decide whether to retry, surface, or escalate.
type Error struct {
	Code    Code
	Message string

	// Field/ProvidedValue/ExpectedFormat populate VALIDATION_ERROR.
	Field          string `json:"field,omitempty"`
	ProvidedValue  any    `json:"provided_value,omitempty"`
	ExpectedFormat string `json:"expected_format,omitempty"`

	// Identifier/Suggestions populate NOT_FOUND.
	Identifier  string   `json:"identifier,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`

	wrapped error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause so errors.Is/As keep working.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.wrapped
}

// New builds a bare structured error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a structured error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, wrapped: cause}
}

// Validation builds a VALIDATION_ERROR with field context.
func Validation(field string, provided any, expected, message string) *Error {
	return &Error{
		Code:           CodeValidation,
		Message:        message,
		Field:          field,
		ProvidedValue:  provided,
		ExpectedFormat: expected,
	}
}

// NotFound builds a NOT_FOUND error with up to three suggestions.
func NotFound(identifier string, suggestions []string) *Error {
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return &Error{
		Code:        CodeNotFound,
		Message:     fmt.Sprintf("no such item: %s", identifier),
		Identifier:  identifier,
		Suggestions: suggestions,
	}
}

// As reports whether err is (or wraps) a *Error and, if so, returns it.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf returns the structured code of err, or CodeInternal if err is
// not a *Error.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}

// IsRetryable reports whether err should be retried under the storage
// backoff policy (spec.md §4.1, §7): only STORAGE_UNAVAILABLE errors.
func IsRetryable(err error) bool {
	e, ok := As(err)
	return ok && e.Code == CodeStorageUnavail
}
