// Package qerrors enumerates the compile/execution error taxonomy of spec §7:
// errors are classified, not caught by exception type.
package qerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is a coarse error classification surfaced to clients and logs.
type Code int

const (
	// CodeUnspecified is the zero value; responses carry it as the success
	// status (no error).
	CodeUnspecified Code = iota
	// CodeTimeout means the compile actor exceeded its configured budget.
	CodeTimeout
	// CodeBadRequest means the physical plan was malformed.
	CodeBadRequest
	// CodeInternal means an invariant broke mid-execution.
	CodeInternal
	// CodeAborted means a peer or coordinator cancelled the operation.
	CodeAborted
	// CodeQuotaExceeded means CPU-quota clearance was denied.
	CodeQuotaExceeded
	// CodePrecondition means a required snapshot or lock was missing.
	CodePrecondition
)

func (c Code) String() string {
	switch c {
	case CodeTimeout:
		return "TIMEOUT"
	case CodeBadRequest:
		return "BAD_REQUEST"
	case CodeInternal:
		return "INTERNAL_ERROR"
	case CodeAborted:
		return "ABORTED"
	case CodeQuotaExceeded:
		return "QUOTA_EXCEEDED"
	case CodePrecondition:
		return "PRECONDITION_FAILED"
	default:
		return "UNSPECIFIED"
	}
}

// Issue is one node of the issue tree a CompileResponse carries: a status
// code, a human message, an optional input span, and nested sub-issues.
type Issue struct {
	Code     Code
	Message  string
	Span     *Span
	SubIssue []Issue
}

// Span locates an issue in the original query text.
type Span struct {
	Row, Col int
}

// Error is the taxonomy error type used across querycore. It wraps an
// underlying cause via github.com/pkg/errors so %+v keeps a stack trace.
type Error struct {
	Code  Code
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a taxonomy error with a stack-carrying cause.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, cause: errors.Errorf(format, args...)}
}

// Wrap attaches a code to an existing error, preserving its chain.
func Wrap(code Code, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, cause: errors.WithStack(err)}
}

// CodeOf extracts the taxonomy code from err, defaulting to CodeInternal for
// errors that never went through this package (the "unexpected event"
// catch-all of spec §4.F).
func CodeOf(err error) Code {
	if err == nil {
		return CodeUnspecified
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return CodeInternal
}

// ToIssue renders err as a single-node issue tree, the shape the compile
// actor replies with on its fatal-error path (spec §4.E).
func ToIssue(err error) Issue {
	return Issue{Code: CodeOf(err), Message: err.Error()}
}
