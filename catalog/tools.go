package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonwraymond/tooldiscovery/tooldoc"

	"github.com/jonwraymond/codechain/fragment"
	"github.com/jonwraymond/codechain/session"
)

// Tool names.
const (
	ToolRunFragments  = "run_fragments"
	ToolClassifyLines = "classify_lines"
	ToolSample        = "sample_fragments"
)

var fragmentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"unit_name":    map[string]any{"type": "string"},
		"source_text":  map[string]any{"type": "string"},
		"call_chain":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"parameters":   map[string]any{"type": "object"},
		"dependencies": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"repo":         map[string]any{"type": "string"},
		"path":         map[string]any{"type": "string"},
	},
}

// ClassifiedLine is one classify_lines result.
type ClassifiedLine struct {
	Line string `json:"line"`
	Kind string `json:"kind"`
}

// NewCodechain returns a catalog holding the codechain tools bound to runner.
func NewCodechain(runner *session.Runner) (*Catalog, error) {
	c := New()
	defs := []ToolDef{
		{
			Name:        ToolRunFragments,
			Title:       "Run code fragments",
			Description: "Materialize Starlark code fragments, inject parameters and run their call chains",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"fragments": map[string]any{"type": "array", "items": fragmentSchema},
				},
				"required": []any{"fragments"},
			},
			Tags:    []string{"starlark", "execution", "call-chain"},
			Summary: "Runs one execution session over the given fragments",
			Notes:   "Fragment failures are reported per item; the session always cleans up its scratch space",
			Examples: []tooldoc.ToolExample{{
				Title: "Add then multiply",
				Args: map[string]any{"fragments": []any{map[string]any{
					"source_text": "def add(a, b):\n    return a + b\n",
					"call_chain":  []any{"x = add(5, 3)", "x * 2"},
				}}},
				ResultHint: "call_1 = 16",
			}},
			Handler: runFragments(runner),
		},
		{
			Name:        ToolClassifyLines,
			Title:       "Classify call-chain lines",
			Description: "Classify each line as a definition, assignment, statement or captured expression",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"lines": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required": []any{"lines"},
			},
			Tags:    []string{"starlark", "classification"},
			Summary: "Classifies lines with the runner's configured classifier",
			Handler: classifyLines(runner),
		},
		{
			Name:        ToolSample,
			Title:       "Sample fragments",
			Description: "Return the sample fragment document",
			InputSchema: map[string]any{"type": "object"},
			Tags:        []string{"samples"},
			Summary:     "Returns fragments suitable for run_fragments",
			Handler: func(context.Context, map[string]any) (any, error) {
				return fragment.Samples(), nil
			},
		},
	}
	for _, def := range defs {
		if err := c.Register(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func runFragments(runner *session.Runner) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		raw, ok := args["fragments"]
		if !ok {
			return nil, fmt.Errorf("%w: fragments is required", fragment.ErrDecode)
		}
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", fragment.ErrDecode, err)
		}
		frags, err := fragment.DecodeBytes(data, fragment.FormatJSON)
		if err != nil {
			return nil, err
		}
		res, err := runner.Run(ctx, frags)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}

func classifyLines(runner *session.Runner) Handler {
	return func(_ context.Context, args map[string]any) (any, error) {
		raw, _ := args["lines"].([]any)
		out := make([]ClassifiedLine, 0, len(raw))
		for i, v := range raw {
			line, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("lines[%d]: expected string, got %T", i, v)
			}
			out = append(out, ClassifiedLine{Line: line, Kind: string(runner.Executor().Classify(line))})
		}
		return out, nil
	}
}
