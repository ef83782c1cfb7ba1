// Package errors provides structured error types for docdesigner.
//
// Errors carry a machine-readable [Code] so the CLI, the HTTP API and the
// import path can report failures consistently:
//   - INVALID_*: rejected user input (bad import document, unknown field,
//     value outside a select field's options)
//   - *_NOT_FOUND: a referenced template, module or kind does not exist
//   - REMOTE_*: the optional remote mirror could not be reached
//   - INTERNAL: unexpected failures (I/O, encoding)
//
// Mutations on the template store never return these errors: stale ids and
// unknown kinds are silent no-ops there. Codes are used where the caller
// must be told why something was refused.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidImport, "document has no layout array")
//	if errors.Is(err, errors.ErrCodeInvalidImport) {
//	    // show errors.UserMessage(err) to the user
//	}
//
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "write snapshot %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidImport Code = "INVALID_IMPORT"
	ErrCodeInvalidField  Code = "INVALID_FIELD"
	ErrCodeInvalidOption Code = "INVALID_OPTION"
	ErrCodeInvalidWidth  Code = "INVALID_WIDTH"
	ErrCodeInvalidKey    Code = "INVALID_KEY"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeTemplateNotFound Code = "TEMPLATE_NOT_FOUND"
	ErrCodeModuleNotFound   Code = "MODULE_NOT_FOUND"
	ErrCodeUnknownKind      Code = "UNKNOWN_KIND"

	// Remote mirror errors
	ErrCodeRemoteUnavailable Code = "REMOTE_UNAVAILABLE"
	ErrCodeTimeout           Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil && e.Message == "" {
			return e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

// IsNotFound reports whether err carries any of the *_NOT_FOUND codes.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeTemplateNotFound, ErrCodeModuleNotFound, ErrCodeUnknownKind:
		return true
	}
	return false
}
