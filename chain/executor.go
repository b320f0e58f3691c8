// Package chain runs the follow-up lines of a code fragment against a loaded
// unit's namespace.
//
// Every line runs inside its own failure boundary: an error or panic is
// recorded as that line's outcome and the next line still runs. A chain of
// N lines always yields N outcomes, in input order.
package chain

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.starlark.net/starlark"

	"github.com/jonwraymond/codechain/deps"
	"github.com/jonwraymond/codechain/unit"
)

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

// Config configures an Executor.
type Config struct {
	// LegacyClassifier selects the textual prefix/"=" heuristic instead of
	// parsing each line.
	LegacyClassifier bool

	// Logger receives one warning per failed line. Optional.
	Logger Logger
}

// Executor runs call chains.
//
// Contract:
// - Concurrency: an Executor holds no per-run state, but the handles it runs
//   against are not safe for concurrent use.
// - Errors: Run never returns an error; failures are recorded per line.
// - Ownership: the returned Result is caller-owned.
type Executor struct {
	classify Classifier
	logger   Logger
}

// New creates an Executor.
func New(cfg Config) *Executor {
	e := &Executor{classify: ClassifySyntax, logger: cfg.Logger}
	if cfg.LegacyClassifier {
		e.classify = ClassifyLegacy
	}
	if e.logger == nil {
		e.logger = nopLogger{}
	}
	return e
}

// Classify returns the kind the executor assigns to line.
func (e *Executor) Classify(line string) Kind {
	return e.classify(line)
}

// Run executes lines in order against the handle's namespace. params is
// echoed into the result; injection is the caller's job and must already
// have happened.
func (e *Executor) Run(h *unit.Handle, lines []string, params map[string]any) *Result {
	res := &Result{
		Parameters: params,
		Outcomes:   make([]Outcome, 0, len(lines)),
	}
	before := len(h.Output())
	later := laterNames(lines)
	for i, line := range lines {
		out := e.runLine(h, i, line, later)
		if out.Err != nil {
			e.logger.Warn("call-chain line failed",
				"unit", h.Name(), "index", i, "line", line, "error", out.Error)
		}
		res.Outcomes = append(res.Outcomes, out)
	}
	res.Output = h.Output()[before:]
	return res
}

// laterNames collects every name the chain binds, so a definition line may
// refer to a name a following line assigns.
func laterNames(lines []string) map[string]bool {
	srcs := make([]string, len(lines))
	for i, line := range lines {
		srcs[i] = strings.TrimSpace(line)
	}
	return unit.BoundNames(srcs...)
}

func (e *Executor) runLine(h *unit.Handle, i int, line string, later map[string]bool) (out Outcome) {
	out = Outcome{
		Index: i,
		Key:   ValueKey(i),
		Line:  line,
		Kind:  e.classify(line),
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.fail(&out, &LineError{
				Index:     i,
				Message:   fmt.Sprintf("panic: %v", r),
				Backtrace: string(debug.Stack()),
				Err:       fmt.Errorf("%w: %v", errPanic, r),
			})
		}
		out.DurationMs = time.Since(start).Milliseconds()
	}()

	src := strings.TrimSpace(line)
	filename := fmt.Sprintf("%s#%s", h.Name(), out.Key)

	if out.Kind.Captures() {
		v, err := starlark.EvalOptions(deps.FileOptions(), h.Thread(), filename, src, h.Namespace())
		if err != nil {
			e.fail(&out, lineError(i, err))
			return out
		}
		out.Captured = true
		out.Value = unit.FromValue(v)
		out.Repr = v.String()
		return out
	}

	if err := h.Exec(filename, src, later); err != nil {
		e.fail(&out, lineError(i, err))
	}
	return out
}

var errPanic = errors.New("panic")

func (e *Executor) fail(out *Outcome, err *LineError) {
	out.Err = err
	out.Error = err.Message
	out.Trace = err.Backtrace
	out.Key = ErrorKey(out.Index)
	out.Captured = false
	out.Value = nil
	out.Repr = ""
}

func lineError(i int, err error) *LineError {
	loc := unit.Locate(err)
	return &LineError{
		Index:     i,
		Message:   unit.Message(err),
		Line:      loc.Line,
		Column:    loc.Column,
		Backtrace: loc.Backtrace,
		Err:       err,
	}
}
