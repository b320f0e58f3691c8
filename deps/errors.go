package deps

import (
	"errors"
	"fmt"
)

// Sentinel errors for dependency resolution.
var (
	// ErrDependencyImport indicates a declared dependency could not be imported.
	// Resolution treats it as a diagnostic, never as a fatal condition.
	ErrDependencyImport = errors.New("dependency import error")

	// ErrModuleNotFound indicates no factory or search path provides the module.
	ErrModuleNotFound = errors.New("module not found")

	// ErrImportCycle indicates a module transitively loads itself.
	ErrImportCycle = errors.New("import cycle")
)

// ImportError describes a failed import of one dependency name.
type ImportError struct {
	// Name is the dependency that failed to import.
	Name string

	// Err is the underlying cause.
	Err error
}

// Error returns the error message.
func (e *ImportError) Error() string {
	return fmt.Sprintf("import %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ImportError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target.
// ImportError matches ErrDependencyImport.
func (e *ImportError) Is(target error) bool {
	return target == ErrDependencyImport
}
