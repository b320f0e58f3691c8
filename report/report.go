// Package report renders session results for people and programs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonwraymond/codechain/session"
)

var title = cases.Title(language.Und)

// Label renders a state for display, e.g. CHAIN_DONE becomes "Chain Done".
func Label(s session.State) string {
	return title.String(strings.ReplaceAll(strings.ToLower(string(s)), "_", " "))
}

// JSON writes the result as indented JSON.
func JSON(w io.Writer, res *session.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

// Text writes a console report: per fragment its metadata, parameters and
// the outcome of every call-chain line.
func Text(w io.Writer, res *session.Result) error {
	p := &printer{w: w}
	p.printf("Session %s: %d fragment(s), %d failed, %dms\n",
		res.SessionID, len(res.Fragments), res.Failed(), res.DurationMs)
	for _, dep := range res.DependencyErrors {
		p.printf("  dependency: %s\n", dep)
	}
	for _, f := range res.Fragments {
		p.printf("\n== %s (%s) %s\n", f.Key, f.UnitName, Label(f.State))
		if f.Repo != "" || f.Path != "" {
			p.printf("  repo: %s  path: %s\n", f.Repo, f.Path)
		}
		p.printf("  source: %d bytes, chain: %d line(s)\n", len(f.SourceText), len(f.CallChain))
		if len(f.Dependencies) > 0 {
			p.printf("  dependencies: %s\n", strings.Join(f.Dependencies, ", "))
		}
		if len(f.Parameters) > 0 {
			p.printf("  parameters: %s\n", formatMap(f.Parameters))
		}
		if len(f.Globals) > 0 {
			p.printf("  globals: %s\n", formatMap(f.Globals))
		}
		if f.Error != "" {
			p.printf("  error: %s\n", f.Error)
		}
		if f.Chain == nil {
			continue
		}
		for _, o := range f.Chain.Outcomes {
			switch {
			case !o.OK():
				p.printf("  [%d] %s\n      %s: %s\n", o.Index, o.Line, o.Key, o.Error)
			case o.Captured:
				p.printf("  [%d] %s\n      %s = %s\n", o.Index, o.Line, o.Key, o.Repr)
			default:
				p.printf("  [%d] %s\n      (%s)\n", o.Index, o.Line, o.Kind)
			}
		}
		if f.Chain.Output != "" {
			p.printf("  output:\n")
			for _, line := range strings.Split(strings.TrimRight(f.Chain.Output, "\n"), "\n") {
				p.printf("    %s\n", line)
			}
		}
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func formatMap(params map[string]any) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, params[name]))
	}
	return strings.Join(parts, " ")
}
