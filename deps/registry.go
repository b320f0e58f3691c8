// Package deps resolves the library dependencies declared by code fragments
// into a process-wide registry of loaded Starlark modules.
package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// SourceExt is the file extension of Starlark module sources.
const SourceExt = ".star"

// Factory builds the members a module exports to load statements.
type Factory func(name string) (starlark.StringDict, error)

// Logger is the interface for logging.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort and must not panic.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Registry holds the loaded modules and the factories able to produce more.
//
// Contract:
// - Concurrency: safe for concurrent use; factories run without the lock held.
// - Errors: Import returns *ImportError; Resolve only logs.
// - Ownership: returned StringDicts are shared and must not be mutated.
type Registry struct {
	mu         sync.RWMutex
	loaded     map[string]starlark.StringDict
	factories  map[string]Factory
	inProgress map[string]bool
	paths      []string
	logger     Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithSearchPaths adds directories searched for <name>.star modules.
func WithSearchPaths(paths ...string) Option {
	return func(r *Registry) {
		r.paths = append(r.paths, paths...)
	}
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(l Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithoutBuiltins drops the built-in library factories.
func WithoutBuiltins() Option {
	return func(r *Registry) {
		r.factories = make(map[string]Factory)
	}
}

// NewRegistry creates a registry preloaded with the built-in library factories.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		loaded:     make(map[string]starlark.StringDict),
		factories:  builtinFactories(),
		inProgress: make(map[string]bool),
		logger:     nopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default is the process-wide registry.
var Default = NewRegistry()

// RegisterFactory registers a factory for a module name, replacing any previous one.
func (r *Registry) RegisterFactory(name string, factory Factory) {
	if name == "" || factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Loaded reports whether name is already in the loaded-module registry.
func (r *Registry) Loaded(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.loaded[name]
	return ok
}

// Names returns loaded module names sorted for deterministic output.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.loaded))
	for name := range r.loaded {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve imports every name not already loaded. Failures are logged and
// returned for inspection; they never stop resolution of the remaining names.
func (r *Registry) Resolve(names []string) []error {
	var failed []error
	for _, name := range names {
		if r.Loaded(name) {
			continue
		}
		if _, err := r.Import(name); err != nil {
			r.logger.Warn("dependency import failed", "dependency", name, "error", err)
			failed = append(failed, err)
			continue
		}
		r.logger.Info("dependency imported", "dependency", name)
	}
	return failed
}

// Import returns the members of a module, importing it on first use.
func (r *Registry) Import(name string) (starlark.StringDict, error) {
	r.mu.Lock()
	if mod, ok := r.loaded[name]; ok {
		r.mu.Unlock()
		return mod, nil
	}
	if r.inProgress[name] {
		r.mu.Unlock()
		return nil, &ImportError{Name: name, Err: ErrImportCycle}
	}
	factory, ok := r.factories[name]
	r.inProgress[name] = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inProgress, name)
		r.mu.Unlock()
	}()

	var (
		mod starlark.StringDict
		err error
	)
	if ok {
		mod, err = factory(name)
	} else {
		mod, err = r.importFile(name)
	}
	if err != nil {
		return nil, &ImportError{Name: name, Err: err}
	}

	r.mu.Lock()
	r.loaded[name] = mod
	r.mu.Unlock()
	return mod, nil
}

// Load implements the starlark.Thread Load hook, importing on demand.
func (r *Registry) Load(_ *starlark.Thread, module string) (starlark.StringDict, error) {
	return r.Import(module)
}

func (r *Registry) importFile(name string) (starlark.StringDict, error) {
	if name == "" || filepath.Base(name) != name {
		return nil, ErrModuleNotFound
	}
	for _, dir := range r.paths {
		path := filepath.Join(dir, name+SourceExt)
		src, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		thread := &starlark.Thread{Name: "deps:" + name, Load: r.Load}
		globals, err := starlark.ExecFileOptions(FileOptions(), thread, path, src, nil)
		if err != nil {
			return nil, err
		}
		return globals, nil
	}
	return nil, fmt.Errorf("%w: no factory and no %s%s on search path", ErrModuleNotFound, name, SourceExt)
}

// FileOptions returns the Starlark dialect used for units, chain lines and
// file modules.
func FileOptions() *syntax.FileOptions {
	return &syntax.FileOptions{
		Set:               true,
		While:             true,
		TopLevelControl:   true,
		GlobalReassign:    true,
		Recursion:         true,
		// load() in a chain line must leave its bindings in the namespace.
		LoadBindsGlobally: true,
	}
}
