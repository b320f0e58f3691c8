package unit

import (
	"os"
	"strings"

	"go.starlark.net/starlark"

	"github.com/jonwraymond/codechain/deps"
)

// LoadFunc resolves load statements, matching starlark.Thread.Load.
type LoadFunc func(thread *starlark.Thread, module string) (starlark.StringDict, error)

type loadConfig struct {
	loader      LoadFunc
	predeclared starlark.StringDict
	declared    map[string]bool
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

// WithLoader sets the load-statement resolver. Defaults to deps.Default.Load.
func WithLoader(fn LoadFunc) LoadOption {
	return func(c *loadConfig) {
		if fn != nil {
			c.loader = fn
		}
	}
}

// WithPredeclared seeds the namespace with values visible to the unit source.
func WithPredeclared(values starlark.StringDict) LoadOption {
	return func(c *loadConfig) {
		for name, v := range values {
			c.predeclared[name] = v
		}
	}
}

// WithDeclared names values that will be injected after the top level runs.
// The unit source may reference them inside function bodies; they resolve
// against the namespace when the function is called.
func WithDeclared(names ...string) LoadOption {
	return func(c *loadConfig) {
		for _, name := range names {
			c.declared[name] = true
		}
	}
}

// Load reads the file at path and executes its top-level statements in a
// fresh namespace scoped to unitName. Every call produces an independent
// namespace; nothing is cached. Failures are returned as *LoadError.
//
// Statements run one at a time against the namespace, so functions defined
// by the unit resolve its top-level names when called. A parameter injected
// over a top-level definition is therefore seen by the unit's functions.
func Load(path, unitName string, opts ...LoadOption) (*Handle, error) {
	cfg := loadConfig{
		loader:      deps.Default.Load,
		predeclared: make(starlark.StringDict),
		declared:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Unit: unitName, Path: path, Err: err}
	}

	output := &strings.Builder{}
	thread := &starlark.Thread{
		Name: unitName,
		Load: cfg.loader,
		Print: func(_ *starlark.Thread, msg string) {
			output.WriteString(msg)
			output.WriteByte('\n')
		},
	}

	namespace := cfg.predeclared
	h := &Handle{
		name:      unitName,
		path:      path,
		namespace: namespace,
		thread:    thread,
		output:    output,
	}

	f, err := deps.FileOptions().Parse(path, src, 0)
	if err != nil {
		return nil, loadError(unitName, path, err)
	}
	bound := topLevelNames(f)
	declared := func(name string) bool {
		return bound[name] || cfg.declared[name]
	}
	if err := h.execFile(f, declared); err != nil {
		return nil, loadError(unitName, path, err)
	}
	return h, nil
}

func loadError(unitName, path string, err error) *LoadError {
	loc := Locate(err)
	return &LoadError{
		Unit:      unitName,
		Path:      path,
		Line:      loc.Line,
		Column:    loc.Column,
		Backtrace: loc.Backtrace,
		Err:       err,
	}
}
