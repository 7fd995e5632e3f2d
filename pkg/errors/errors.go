// Package errors provides structured error handling for panelopt.
//
// Every failure surfaced by the pipeline carries an ErrorType from the
// taxonomy below so callers (and the CLI exit-code mapping) can distinguish
// schema failures, infeasible selections, and solver errors without string
// matching. Silent data cleaning (missing values, basal-join misses) never
// produces an error; everything in the taxonomy aborts the run.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors.
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeConfig represents configuration errors.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeFile represents file operation errors.
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeData represents malformed input data errors.
	ErrorTypeData ErrorType = "data"
	// ErrorTypeSchema represents a required input column missing from the
	// source table. Fatal; no partial output is produced.
	ErrorTypeSchema ErrorType = "schema"
	// ErrorTypeJoinMismatch represents a group present in the statistics
	// table but absent from the correlation matrix, or vice versa, when
	// assembling the optimizer's candidate set.
	ErrorTypeJoinMismatch ErrorType = "join_mismatch"
	// ErrorTypeDegenerateGroup represents a group whose truncated value
	// vector makes correlation undefined (length < 2 or zero variance).
	ErrorTypeDegenerateGroup ErrorType = "degenerate_group"
	// ErrorTypeInfeasible represents selection cardinality bounds that are
	// incompatible with the candidate count or with each other.
	ErrorTypeInfeasible ErrorType = "infeasible"
	// ErrorTypeSolver represents a solver failure or a timeout without a
	// usable incumbent solution.
	ErrorTypeSolver ErrorType = "solver"
	// ErrorTypeTimeout represents a deadline exceeded outside the solver.
	ErrorTypeTimeout ErrorType = "timeout"
)

// Error represents a structured error with context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// Preserve the original stack when rewrapping our own errors.
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existing.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the error's type, or ErrorTypeInternal for foreign errors.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// captureStack captures the current call stack.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
