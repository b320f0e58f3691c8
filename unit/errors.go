package unit

import (
	"errors"
	"fmt"
	"strings"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Sentinel errors for error classification.
var (
	// ErrMaterialize indicates a unit's source could not be written to scratch.
	ErrMaterialize = errors.New("unit materialize error")

	// ErrUnitLoad indicates the unit's top-level execution failed.
	ErrUnitLoad = errors.New("unit load error")

	// ErrInvalidParameter indicates a parameter mapping violates the injection contract.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnsupportedValue indicates a Go value has no Starlark representation.
	ErrUnsupportedValue = errors.New("unsupported value")
)

// LoadError represents a failure while executing a unit's top level.
// It includes source location information when the interpreter reports it.
type LoadError struct {
	// Unit is the name of the unit that failed to load.
	Unit string

	// Path is the materialized source file.
	Path string

	// Line is the 1-based line number where the error occurred.
	// Zero indicates the line is unknown.
	Line int

	// Column is the 1-based column number where the error occurred.
	Column int

	// Backtrace is the interpreter call stack, when available.
	Backtrace string

	// Err is the underlying error.
	Err error
}

// Error returns the error message, including line and column if available.
func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load unit %q: %v (line %d, col %d)", e.Unit, e.Err, e.Line, e.Column)
	}
	return fmt.Sprintf("load unit %q: %v", e.Unit, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target.
// LoadError matches ErrUnitLoad to allow sentinel-style error checking.
func (e *LoadError) Is(target error) bool {
	return target == ErrUnitLoad
}

// Location is where the interpreter attributes an error.
type Location struct {
	Line      int
	Column    int
	Backtrace string
}

// Locate extracts position and backtrace from scanner, resolver and
// evaluation errors. Unknown errors yield the zero Location.
func Locate(err error) Location {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		loc := Location{Backtrace: evalErr.Backtrace()}
		if len(evalErr.CallStack) > 0 {
			pos := evalErr.CallStack.At(0).Pos
			loc.Line, loc.Column = int(pos.Line), int(pos.Col)
		}
		return loc
	}
	var syntaxErr syntax.Error
	if errors.As(err, &syntaxErr) {
		return Location{Line: int(syntaxErr.Pos.Line), Column: int(syntaxErr.Pos.Col)}
	}
	var resolveErrs resolve.ErrorList
	if errors.As(err, &resolveErrs) && len(resolveErrs) > 0 {
		pos := resolveErrs[0].Pos
		return Location{Line: int(pos.Line), Column: int(pos.Col)}
	}
	return Location{}
}

// Message returns the interpreter's message for err without its position
// prefix. A function reading a namespace name that is still unbound is
// reported as "undefined: name", the same as an unknown name.
func Message(err error) string {
	var evalErr *starlark.EvalError
	if !errors.As(err, &evalErr) {
		return err.Error()
	}
	rest, ok := strings.CutPrefix(evalErr.Msg, "internal error: predeclared variable ")
	if name, uninit := strings.CutSuffix(rest, " is uninitialized"); ok && uninit {
		return "undefined: " + name
	}
	return evalErr.Msg
}
