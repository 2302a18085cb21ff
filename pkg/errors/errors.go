// Package errors provides structured error types for mmgreduce.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and library entry points
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - UNKNOWN_*: References to nodes or weights that do not exist
//   - *_NOT_FOUND: Missing files or cache entries
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidWeight, "weight %q is not a number", raw)
//	if errors.Is(err, errors.ErrCodeInvalidWeight) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
//
// Errors about a single row of an input table are reported as [RecordError],
// which adds the table, line and field to the coded error.
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
	ErrCodeInvalidWeight Code = "INVALID_WEIGHT"
	ErrCodeInvalidType   Code = "INVALID_TYPE"
	ErrCodeInvalidRing   Code = "INVALID_RING"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeDuplicateID   Code = "DUPLICATE_ID"

	// Reference errors
	ErrCodeUnknownNode     Code = "UNKNOWN_NODE"
	ErrCodeUnknownWeightID Code = "UNKNOWN_WEIGHT_ID"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Execution errors
	ErrCodePathLimit Code = "PATH_LIMIT"
	ErrCodeCancelled Code = "CANCELLED"

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
	var r *RecordError
	if errors.As(err, &r) {
		return r.location() + ": " + r.Err.Message
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RecordError locates a problem in one row of an input table.
type RecordError struct {
	Table string // Table kind: nodes, edges or weights
	Line  int    // 1-based line number, header included
	Field string // Offending column, empty when the row as a whole is at fault
	Err   *Error
}

// Record creates a RecordError with a fresh coded error.
func Record(table string, line int, field string, code Code, format string, args ...any) *RecordError {
	return &RecordError{Table: table, Line: line, Field: field, Err: New(code, format, args...)}
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	return e.location() + ": " + e.Err.Error()
}

// Unwrap returns the coded error so that Is and GetCode see through the record.
func (e *RecordError) Unwrap() error {
	return e.Err
}

// Code returns the error code for this error type.
func (e *RecordError) Code() Code {
	return e.Err.Code
}

func (e *RecordError) location() string {
	if e.Field == "" {
		return fmt.Sprintf("%s table, line %d", e.Table, e.Line)
	}
	return fmt.Sprintf("%s table, line %d, field %s", e.Table, e.Line, e.Field)
}
