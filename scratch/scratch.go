// Package scratch manages the ephemeral directory that holds materialized
// unit sources for the lifetime of one execution session.
package scratch

import (
	"errors"
	"fmt"
	"os"
)

// DefaultPrefix is the directory name prefix used when none is configured.
const DefaultPrefix = "codechain-"

// ErrResource indicates the scratch directory could not be created.
// It is fatal for the session that requested it.
var ErrResource = errors.New("scratch space unavailable")

// Space is one acquired scratch directory.
//
// Contract:
// - Concurrency: a Space is owned by a single session and is not safe for concurrent use.
// - Lifetime: Release must be called (typically deferred) on every exit path.
// - Ownership: Files returns a caller-owned copy.
type Space struct {
	dir      string
	files    []string
	released bool
}

// Acquire creates a fresh, uniquely named directory under root.
// An empty root uses the system temp directory; an empty prefix uses DefaultPrefix.
func Acquire(root, prefix string) (*Space, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	dir, err := os.MkdirTemp(root, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	return &Space{dir: dir}, nil
}

// Dir returns the directory path.
func (s *Space) Dir() string {
	return s.dir
}

// Track records a file materialized inside the space.
func (s *Space) Track(path string) {
	s.files = append(s.files, path)
}

// Files returns the paths tracked so far, in materialization order.
func (s *Space) Files() []string {
	return append([]string(nil), s.files...)
}

// Released reports whether Release has completed.
func (s *Space) Released() bool {
	return s.released
}

// Release removes the directory and everything under it.
// Calling it again, or after the directory vanished, is a no-op.
func (s *Space) Release() error {
	if s == nil || s.released {
		return nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("release scratch %s: %w", s.dir, err)
	}
	s.released = true
	return nil
}
