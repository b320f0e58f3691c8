package chain

import (
	"errors"
	"fmt"
)

// ErrLineExecution indicates a single call-chain line raised while it was
// executed or evaluated. The chain records it and continues.
var ErrLineExecution = errors.New("line execution error")

// LineError represents the failure of one call-chain line.
// It includes the interpreter's source location when available.
type LineError struct {
	// Index is the 0-based position of the line in the chain.
	Index int

	// Message is the interpreter's message, without position prefix.
	Message string

	// Line is the 1-based line number within the chain entry.
	// Zero indicates the line is unknown.
	Line int

	// Column is the 1-based column number within the chain entry.
	Column int

	// Backtrace is the interpreter call stack, or the Go stack for panics.
	Backtrace string

	// Err is the underlying error.
	Err error
}

// Error returns the error message, including line and column if available.
func (e *LineError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("call_%d: %s (line %d, col %d)", e.Index, e.Message, e.Line, e.Column)
	}
	return fmt.Sprintf("call_%d: %s", e.Index, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *LineError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target.
// LineError matches ErrLineExecution to allow sentinel-style error checking.
func (e *LineError) Is(target error) bool {
	return target == ErrLineExecution
}
