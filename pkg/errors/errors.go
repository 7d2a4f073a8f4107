// Package errors provides structured error types for the tableau engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the engine, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Distinguishing expected search outcomes (inconsistency) from defects
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - INCONSISTENT_*: Expected consistency failures found during search
//   - NODE_MERGE, ILLEGAL_TERM_TYPE: Model manipulation contract violations
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNodeMerge, "cannot merge %d into %d", src, dst)
//	if errors.Is(err, errors.ErrCodeNodeMerge) {
//	    // Handle merge error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidInput, origErr, "parse axiom %q", text)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidName  Code = "INVALID_NAME"
	ErrCodeInvalidPath  Code = "INVALID_PATH"
	ErrCodeParse        Code = "PARSE_ERROR"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Model manipulation errors
	ErrCodeNodeMerge       Code = "NODE_MERGE"
	ErrCodeIllegalTermType Code = "ILLEGAL_TERM_TYPE"

	// Consistency outcomes
	ErrCodeInconsistentABox Code = "INCONSISTENT_ABOX"
	ErrCodeInconsistentRBox Code = "INCONSISTENT_RBOX"

	// Cache errors
	ErrCodeCache Code = "CACHE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
	ErrCodeCanceled    Code = "CANCELED"
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
	var c coded
	if errors.As(err, &c) {
		return c.Code() == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsInconsistency reports whether err is an expected consistency failure
// (an ABox clash or an unsatisfiable RBox) rather than a defect.
func IsInconsistency(err error) bool {
	return Is(err, ErrCodeInconsistentABox) || Is(err, ErrCodeInconsistentRBox)
}

type coded interface {
	error
	Code() Code
}

// ClashError describes a contradiction found on a single model element.
// It is the typed form of ErrCodeInconsistentABox and lists the choice
// points that the contradiction depends on.
type ClashError struct {
	Node     int64    // Node on which the clash was detected
	Reason   string   // Short description, e.g. "A and (not A)"
	Culprits []string // Governing terms the clash depends on
}

// Error implements the error interface.
func (e *ClashError) Error() string {
	if len(e.Culprits) > 0 {
		return fmt.Sprintf("clash on node %d: %s (depends on %s)", e.Node, e.Reason, strings.Join(e.Culprits, ", "))
	}
	return fmt.Sprintf("clash on node %d: %s", e.Node, e.Reason)
}

// Code returns the error code for this error type.
func (e *ClashError) Code() Code {
	return ErrCodeInconsistentABox
}

// As finds the first error in err's chain that matches target. It is the
// standard library's errors.As, re-exported so callers need only one errors
// import.
func As(err error, target any) bool {
	return errors.As(err, target)
}
