// Package session orchestrates one execution session: dependency
// resolution, a scoped scratch space, and per-fragment materialize, load,
// inject and call-chain execution.
package session

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/codechain/chain"
	"github.com/jonwraymond/codechain/fragment"
	"github.com/jonwraymond/codechain/scratch"
	"github.com/jonwraymond/codechain/unit"
)

// Runner executes batches of fragments.
//
// Contract:
// - Concurrency: safe to reuse, but concurrent Runs that share a Registry
//   import modules through its lock only; units are never shared.
// - Context: checked between fragments; a running line is not interrupted.
// - Errors: only scratch acquisition failures (scratch.ErrResource) are
//   returned. Fragment failures are recorded in the Result.
// - Ownership: fragments are read-only; parameters are deep-copied.
type Runner struct {
	cfg  Config
	exec *chain.Executor
}

// NewRunner creates a Runner.
// Returns ErrConfiguration if the configuration is invalid.
func NewRunner(cfg Config, opts ...Option) (*Runner, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Runner{
		cfg: cfg,
		exec: chain.New(chain.Config{
			LegacyClassifier: cfg.LegacyClassifier,
			Logger:           cfg.Logger,
		}),
	}, nil
}

// Executor returns the call-chain executor the runner uses.
func (r *Runner) Executor() *chain.Executor {
	return r.exec
}

// Run executes fragments in order inside one scratch space. The scratch
// space is removed before Run returns on every path.
func (r *Runner) Run(ctx context.Context, fragments []fragment.Descriptor) (res *Result, err error) {
	start := time.Now()
	id := uuid.NewString()
	log := r.cfg.Logger
	state := StateIdle

	work := make([]fragment.Descriptor, len(fragments))
	for i, d := range fragments {
		work[i] = d.Clone()
	}

	res = &Result{SessionID: id, Fragments: make([]FragmentResult, 0, len(work))}

	for _, depErr := range r.cfg.Registry.Resolve(fragment.Dependencies(work)) {
		log.Warn("dependency import failed", "session", id, "error", depErr)
		res.DependencyErrors = append(res.DependencyErrors, depErr.Error())
	}

	space, err := scratch.Acquire(r.cfg.ScratchRoot, r.cfg.ScratchPrefix+id[:8]+"-")
	if err != nil {
		log.Error("session aborted", "session", id, "error", err)
		_ = Transition(&state, StateDone)
		return nil, err
	}
	r.advance(&state, StateScratchAcquired)
	res.ScratchDir = space.Dir()
	log.Info("session started", "session", id, "scratch", space.Dir(), "fragments", len(work))

	defer func() {
		r.advance(&state, StateScratchReleasing)
		if relErr := space.Release(); relErr != nil {
			log.Error("scratch release failed", "session", id, "error", relErr)
		}
		res.Files = space.Files()
		r.advance(&state, StateDone)
		res.State = state
		res.DurationMs = time.Since(start).Milliseconds()
		log.Info("session finished", "session", id,
			"fragments", len(res.Fragments), "failed", res.Failed(), "durationMs", res.DurationMs)
	}()

	for i, d := range work {
		r.advance(&state, StateProcessingFragment)
		if ctxErr := ctx.Err(); ctxErr != nil {
			fr := newFragmentResult(i, d)
			r.fail(&fr, fmt.Errorf("%w: %v", ErrCancelled, ctxErr))
			res.Fragments = append(res.Fragments, fr)
			continue
		}
		res.Fragments = append(res.Fragments, r.runFragment(space, i, d))
	}
	return res, nil
}

func (r *Runner) advance(state *State, next State) {
	if err := Transition(state, next); err != nil {
		r.cfg.Logger.Error("session state", "error", err)
	}
}

func newFragmentResult(i int, d fragment.Descriptor) FragmentResult {
	return FragmentResult{
		Index:        i,
		Key:          fragment.ItemKey(i),
		UnitName:     d.NameOr(i),
		Repo:         d.Repo,
		Path:         d.Path,
		SourceText:   d.SourceText,
		CallChain:    d.CallChain,
		Parameters:   d.Parameters,
		Dependencies: d.Dependencies,
		State:        FragmentPending,
	}
}

// runFragment drives one fragment through the fragment state machine. Any
// error or panic moves it to FragmentFailed.
func (r *Runner) runFragment(space *scratch.Space, i int, d fragment.Descriptor) (fr FragmentResult) {
	start := time.Now()
	fr = newFragmentResult(i, d)
	defer func() {
		if p := recover(); p != nil {
			r.fail(&fr, fmt.Errorf("panic: %v", p))
			fr.Trace = string(debug.Stack())
		}
		fr.DurationMs = time.Since(start).Milliseconds()
	}()

	step := func(next State, err error) bool {
		if err == nil {
			err = Transition(&fr.State, next)
		}
		if err != nil {
			r.fail(&fr, err)
			return false
		}
		return true
	}

	path, err := unit.Materialize(space, fr.UnitName, d.SourceText)
	if !step(FragmentMaterialized, err) {
		return fr
	}
	fr.UnitPath = path

	h, err := unit.Load(path, fr.UnitName,
		unit.WithLoader(r.cfg.Registry.Load),
		unit.WithDeclared(paramNames(d.Parameters)...))
	if !step(FragmentLoaded, err) {
		return fr
	}
	defer func() { fr.Output = h.Output() }()

	if !step(FragmentInjected, unit.Inject(h, d.Parameters)) {
		return fr
	}
	fr.Globals = h.Globals()
	if !step(FragmentChainRunning, nil) {
		return fr
	}
	fr.Chain = r.exec.Run(h, d.CallChain, d.Parameters)
	step(FragmentChainDone, nil)
	return fr
}

func (r *Runner) fail(fr *FragmentResult, err error) {
	fr.State = FragmentFailed
	fr.Err = err
	fr.Error = err.Error()
	var loadErr *unit.LoadError
	if errors.As(err, &loadErr) {
		fr.Trace = loadErr.Backtrace
	}
	r.cfg.Logger.Error("fragment failed", "item", fr.Key, "unit", fr.UnitName, "error", err)
}

func paramNames(params map[string]any) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
