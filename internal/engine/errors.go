package engine

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned when the query is blank.
var ErrEmptyQuery = errors.New("empty query")

// ErrorCode identifies the category of an evaluation error.
type ErrorCode int

const (
	// ErrInvalidPath indicates the engine could not compile the expression.
	ErrInvalidPath ErrorCode = iota + 1
	// ErrEvaluation indicates the expression compiled but failed against the data.
	ErrEvaluation
	// ErrMaxDepthExceeded indicates recursive descent over data nested deeper than allowed.
	ErrMaxDepthExceeded
	// ErrCancelled indicates the context was done before evaluation finished.
	ErrCancelled
)

// String returns the snake_case name of the code.
func (c ErrorCode) String() string {
	switch c {
	case ErrInvalidPath:
		return "invalid_path"
	case ErrEvaluation:
		return "evaluation_failed"
	case ErrMaxDepthExceeded:
		return "max_depth_exceeded"
	case ErrCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("error_code_%d", int(c))
	}
}

// Error is the structured error returned by evaluators.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("jsonpath: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("jsonpath: %s", e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsPathError reports whether err is a syntax error in the expression.
func IsPathError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrInvalidPath
}
