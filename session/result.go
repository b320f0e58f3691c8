package session

import (
	"github.com/jonwraymond/codechain/chain"
)

// FragmentResult is the record of one fragment. It echoes the descriptor it
// was produced from.
type FragmentResult struct {
	Index        int            `json:"index"`
	Key          string         `json:"key"`
	UnitName     string         `json:"unitName"`
	Repo         string         `json:"repo,omitempty"`
	Path         string         `json:"path,omitempty"`
	SourceText   string         `json:"sourceText"`
	CallChain    []string       `json:"callChain"`
	Parameters   map[string]any `json:"parameters"`
	Dependencies []string       `json:"dependencies"`

	// State is FragmentChainDone on success, FragmentFailed otherwise.
	State State `json:"state"`

	// UnitPath is the materialized file, empty if materialization failed.
	UnitPath string `json:"unitPath,omitempty"`

	// Globals holds the unit's data bindings after load and injection,
	// before the chain ran. Nil unless injection succeeded.
	Globals map[string]any `json:"globals,omitempty"`

	// Chain is nil unless the chain ran.
	Chain *chain.Result `json:"chain,omitempty"`

	// Output is everything the unit printed, load included.
	Output string `json:"output,omitempty"`

	// Error and Trace describe a fragment-level failure.
	Error string `json:"error,omitempty"`
	Trace string `json:"trace,omitempty"`

	// Err is the structured fragment-level failure.
	Err error `json:"-"`

	DurationMs int64 `json:"durationMs"`
}

// OK returns true if the fragment reached CHAIN_DONE.
func (f FragmentResult) OK() bool {
	return f.State == FragmentChainDone
}

// Map renders the fragment as an identifier map with its chain results
// under "execution_result".
func (f FragmentResult) Map() map[string]any {
	m := map[string]any{
		"unit_name":    f.UnitName,
		"code_repo":    f.Repo,
		"code_path":    f.Path,
		"source_text":  f.SourceText,
		"call_chain":   f.CallChain,
		"parameters":   f.Parameters,
		"dependencies": f.Dependencies,
		"state":        string(f.State),
	}
	if f.Globals != nil {
		m["result"] = f.Globals
	}
	if f.Chain != nil {
		m["execution_result"] = f.Chain.Results()
	}
	if f.Error != "" {
		m["error"] = f.Error
	}
	return m
}

// Result is the outcome of one session.
//
// Contract:
// - Ownership: caller-owned; not mutated after Run returns.
// - Fragments holds one entry per input descriptor, in input order.
type Result struct {
	SessionID  string `json:"sessionId"`
	ScratchDir string `json:"scratchDir"`

	// Files lists the unit files materialized during the session. They no
	// longer exist once Run returns.
	Files []string `json:"files"`

	// DependencyErrors lists declared dependencies that failed to import.
	DependencyErrors []string `json:"dependencyErrors,omitempty"`

	Fragments []FragmentResult `json:"fragments"`

	State      State `json:"state"`
	DurationMs int64 `json:"durationMs"`
}

// Map renders the session as item_<i> keyed fragment maps.
func (r *Result) Map() map[string]any {
	out := make(map[string]any, len(r.Fragments))
	for _, f := range r.Fragments {
		out[f.Key] = f.Map()
	}
	return out
}

// Failed returns the number of fragments that did not complete.
func (r *Result) Failed() int {
	n := 0
	for _, f := range r.Fragments {
		if !f.OK() {
			n++
		}
	}
	return n
}
