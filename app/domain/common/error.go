package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can branch without string matching.
type ErrorKind string

const (
	KindNotFound        ErrorKind = "not_found"
	KindValidation      ErrorKind = "validation"
	KindProblem         ErrorKind = "problem"
	KindOfflineDisabled ErrorKind = "offline_mode_disabled"
	KindStorage         ErrorKind = "storage"
)

// Error represents a standardized error with code and message
type Error struct {
	Kind    ErrorKind           `json:"kind"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Detail  string              `json:"detail,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// NewError creates a new Error instance
func NewError(code, message string) *Error {
	return &Error{
		Kind:    KindProblem,
		Code:    code,
		Message: message,
	}
}

func NewNotFound(code, message string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    code,
		Message: message,
	}
}

// NewValidation wraps structured per-field messages. These are returned to the
// caller as-is and never retried.
func NewValidation(code string, fields map[string][]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    code,
		Message: "validation failed",
		Fields:  fields,
	}
}

func NewProblem(code, title, detail string) *Error {
	return &Error{
		Kind:    KindProblem,
		Code:    code,
		Message: title,
		Detail:  detail,
	}
}

func NewOfflineDisabled(code string) *Error {
	return &Error{
		Kind:    KindOfflineDisabled,
		Code:    code,
		Message: "offline mode is disabled, cannot modify data while disconnected",
	}
}

func NewStorage(code string, cause error) *Error {
	return &Error{
		Kind:    KindStorage,
		Code:    code,
		Message: "local store failure",
		Detail:  fmt.Sprintf("%v", cause),
	}
}

// IsEmpty checks if the error is empty (no error)
func (e *Error) IsEmpty() bool {
	return e == nil || e.Code == ""
}

// String returns the string representation of the error
func (e *Error) String() string {
	if e == nil {
		return ""
	}
	if e.Detail != "" {
		return e.Code + ": " + e.Message + ": " + e.Detail
	}
	return e.Code + ": " + e.Message
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.String()
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind == kind
	}
	return false
}

// EmptyError represents an empty error (no error occurred)
var EmptyError = &Error{}
