// Package fragment defines the code-fragment descriptor, its JSON and YAML
// encodings, and the built-in sample documents.
package fragment

import (
	"fmt"
	"slices"
)

// Descriptor is one externally supplied code fragment.
//
// Contract:
// - Ownership: Clone returns a copy whose Parameters can be mutated without
//   affecting the original.
// - Missing fields decode to their zero values.
type Descriptor struct {
	// UnitName names the unit the source is materialized as.
	// Empty means DefaultUnitName(index).
	UnitName string `json:"unit_name,omitempty" yaml:"unit_name,omitempty"`

	// SourceText is the unit's top-level source.
	SourceText string `json:"source_text" yaml:"source_text"`

	// CallChain holds the follow-up lines, run in order after loading.
	CallChain []string `json:"call_chain" yaml:"call_chain"`

	// Parameters are injected into the unit namespace before the chain.
	Parameters map[string]any `json:"parameters" yaml:"parameters"`

	// Dependencies are module names resolved before execution.
	Dependencies []string `json:"dependencies" yaml:"dependencies"`

	// Repo is the originating repository, echoed into reports.
	Repo string `json:"repo,omitempty" yaml:"repo,omitempty"`

	// Path is the originating file path, echoed into reports.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// DefaultUnitName is the unit name given to the fragment at index i when it
// carries none.
func DefaultUnitName(i int) string {
	return fmt.Sprintf("module_%d", i)
}

// ItemKey is the result identifier of the fragment at index i.
func ItemKey(i int) string {
	return fmt.Sprintf("item_%d", i)
}

// NameOr returns the descriptor's unit name, or DefaultUnitName(i).
func (d Descriptor) NameOr(i int) string {
	if d.UnitName != "" {
		return d.UnitName
	}
	return DefaultUnitName(i)
}

// Clone returns a deep copy of the descriptor.
func (d Descriptor) Clone() Descriptor {
	out := d
	out.CallChain = slices.Clone(d.CallChain)
	out.Dependencies = slices.Clone(d.Dependencies)
	out.Parameters = CopyParameters(d.Parameters)
	return out
}

// Dependencies returns the union of all declared dependencies, in first
// occurrence order.
func Dependencies(ds []Descriptor) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range ds {
		for _, name := range d.Dependencies {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
