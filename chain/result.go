package chain

import "fmt"

// ValueKey is the result identifier of line i.
func ValueKey(i int) string {
	return fmt.Sprintf("call_%d", i)
}

// ErrorKey is the result identifier of a failed line i.
func ErrorKey(i int) string {
	return fmt.Sprintf("call_%d_error", i)
}

// Outcome is the record of one call-chain line.
type Outcome struct {
	// Index is the 0-based position of the line.
	Index int `json:"index"`

	// Key is ValueKey(Index), or ErrorKey(Index) when the line failed.
	Key string `json:"key"`

	// Line is the source as supplied.
	Line string `json:"line"`

	// Kind is how the line was classified.
	Kind Kind `json:"kind"`

	// Captured is true when an expression produced a value.
	Captured bool `json:"captured"`

	// Value is the Go-native form of the captured value.
	Value any `json:"value,omitempty"`

	// Repr is the interpreter's repr of the captured value.
	Repr string `json:"repr,omitempty"`

	// Error is the failure message, empty on success.
	Error string `json:"error,omitempty"`

	// Trace is the diagnostic backtrace of a failure.
	Trace string `json:"trace,omitempty"`

	// DurationMs is the wall time the line took.
	DurationMs int64 `json:"durationMs"`

	// Err is the structured failure, nil on success.
	Err *LineError `json:"-"`
}

// OK returns true if the line ran without error.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Result is the outcome of one call chain. It is not mutated after Run returns.
type Result struct {
	// Parameters echoes the mapping injected before the chain ran.
	Parameters map[string]any `json:"parameters"`

	// Outcomes holds one entry per input line, in input order.
	Outcomes []Outcome `json:"outcomes"`

	// Output is what the chain printed.
	Output string `json:"output,omitempty"`
}

// Results maps line identifiers to captured values and error messages.
// Lines that captured nothing (assignments, definitions) have no entry.
func (r *Result) Results() map[string]any {
	out := make(map[string]any, len(r.Outcomes))
	for _, o := range r.Outcomes {
		switch {
		case o.Err != nil:
			out[o.Key] = o.Error
		case o.Captured:
			out[o.Key] = o.Value
		}
	}
	return out
}

// Failed returns the number of lines that failed.
func (r *Result) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
