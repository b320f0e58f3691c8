// Package unit turns fragment source text into loaded Starlark units, each
// owning one mutable namespace shared by reference with every later step.
//
// A unit goes through three operations, always in this order:
//
//   - [Materialize] writes the source into a session's scratch space.
//   - [Load] executes the top level exactly once in a fresh namespace.
//   - [Inject] binds caller parameters into that namespace, overriding
//     same-named top-level definitions.
//
// The namespace is then handed to the call-chain executor, which reads and
// extends it line by line.
package unit

import (
	"fmt"
	"sort"
	"strings"

	"go.starlark.net/starlark"
)

// Handle identifies one loaded unit and its namespace.
//
// Contract:
// - Concurrency: not safe for concurrent use; a handle belongs to one session.
// - Ownership: Namespace returns the live map; callers mutate it deliberately.
type Handle struct {
	name      string
	path      string
	namespace starlark.StringDict
	thread    *starlark.Thread
	output    *strings.Builder
}

// Name returns the unit name.
func (h *Handle) Name() string {
	return h.name
}

// Path returns the materialized source file the unit was loaded from.
func (h *Handle) Path() string {
	return h.path
}

// Namespace returns the live namespace.
func (h *Handle) Namespace() starlark.StringDict {
	return h.namespace
}

// Thread returns the interpreter thread bound to this unit.
func (h *Handle) Thread() *starlark.Thread {
	return h.thread
}

// Lookup returns the value bound to name.
func (h *Handle) Lookup(name string) (starlark.Value, bool) {
	v, ok := h.namespace[name]
	return v, ok
}

// Set binds name in the namespace.
func (h *Handle) Set(name string, v starlark.Value) {
	h.namespace[name] = v
}

// Names returns the bound names sorted.
func (h *Handle) Names() []string {
	out := make([]string, 0, len(h.namespace))
	for name := range h.namespace {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Globals returns the namespace's data bindings converted with FromValue.
// Names starting with "_" and callable values are left out.
func (h *Handle) Globals() map[string]any {
	out := make(map[string]any)
	for name, v := range h.namespace {
		if strings.HasPrefix(name, "_") {
			continue
		}
		if _, ok := v.(starlark.Callable); ok {
			continue
		}
		out[name] = FromValue(v)
	}
	return out
}

// Output returns everything the unit printed so far.
func (h *Handle) Output() string {
	return h.output.String()
}

// String renders a namespace summary for diagnostics.
func (h *Handle) String() string {
	return fmt.Sprintf("unit(%s, %d names)", h.name, len(h.namespace))
}
