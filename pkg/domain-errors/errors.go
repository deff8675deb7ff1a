// Package domainerrors provides code-tagged errors for expected business-rule
// failures. Services return these instead of panicking or leaking infrastructure
// errors; transport layers translate codes into HTTP statuses.
//
// For infrastructure facts (row missing, key already used) stores return
// pkg/platform/sentinel errors and services translate them into a code here.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an expected failure.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeUnauthorized       Code = "unauthorized"
	CodeInvalidTransition  Code = "invalid_transition"
	CodeGuardViolation     Code = "guard_violation"
	CodeConflict           Code = "conflict"
	CodeDuplicatePayment   Code = "duplicate_payment"
	CodeImmutableRecord    Code = "immutable_record"
	CodeUnknownState       Code = "unknown_state"
	CodeNoAuditorAvailable Code = "no_auditor_available"
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal"
)

// Error is a code-tagged domain error. It optionally wraps a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the chain.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost domain error in the chain, or
// CodeInternal when the error is not code-tagged.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
