package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.starlark.net/starlark"

	"github.com/jonwraymond/codechain/deps"
	"github.com/jonwraymond/codechain/fragment"
	"github.com/jonwraymond/codechain/scratch"
	"github.com/jonwraymond/codechain/unit"
)

func newRunner(t *testing.T, opts ...Option) (*Runner, string) {
	t.Helper()
	root := t.TempDir()
	base := []Option{WithScratchRoot(root), WithRegistry(deps.NewRegistry())}
	r, err := NewRunner(Config{}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r, root
}

func assertScratchGone(t *testing.T, res *Result, root string) {
	t.Helper()
	if _, err := os.Stat(res.ScratchDir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("scratch dir %s still exists: %v", res.ScratchDir, err)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("scratch root not empty: %v", entries)
	}
}

func TestRun_Samples(t *testing.T) {
	r, root := newRunner(t)

	res, err := r.Run(context.Background(), fragment.Samples())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	assertScratchGone(t, res, root)

	if res.State != StateDone || res.SessionID == "" {
		t.Errorf("state = %s, id = %q", res.State, res.SessionID)
	}
	if len(res.Fragments) != 2 || res.Failed() != 0 {
		t.Fatalf("fragments = %+v", res.Fragments)
	}
	if len(res.Files) != 2 {
		t.Errorf("Files = %v, want two materialized units", res.Files)
	}
	if len(res.DependencyErrors) != 1 || !strings.Contains(res.DependencyErrors[0], "collections") {
		t.Errorf("DependencyErrors = %v, want collections only", res.DependencyErrors)
	}

	first := res.Fragments[0]
	if first.Key != "item_0" || first.UnitName != "module_0" || first.Repo != "example_repo" {
		t.Errorf("first fragment metadata = %+v", first)
	}
	got := first.Chain.Results()
	if got["call_4"] != int64(16) {
		t.Errorf("call_4 = %#v, want 16", got["call_4"])
	}
	processed, ok := got["call_5"].([]any)
	if !ok || len(processed) != 4 || processed[3] != int64(8) {
		t.Errorf("call_5 = %#v, want [2 4 6 8]", got["call_5"])
	}

	area := res.Fragments[1].Chain.Results()["call_2"]
	if area != 78.54 {
		t.Errorf("formatted area = %#v, want 78.54", area)
	}
}

func TestRun_FragmentFailuresAreIsolated(t *testing.T) {
	r, root := newRunner(t)
	frags := []fragment.Descriptor{
		{UnitName: "broken", SourceText: "def broken(:\n"},
		{UnitName: "raises", SourceText: "x = 1 // 0\n"},
		{UnitName: "bad_param", SourceText: "x = 1\n", Parameters: map[string]any{"ch": make(chan int)}},
		{UnitName: "ok", SourceText: "y = 2\n", CallChain: []string{"y * 21"}},
	}

	res, err := r.Run(context.Background(), frags)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	assertScratchGone(t, res, root)

	if len(res.Fragments) != 4 {
		t.Fatalf("len(Fragments) = %d, want 4", len(res.Fragments))
	}
	for i, f := range res.Fragments[:3] {
		if f.State != FragmentFailed || f.Error == "" || f.Chain != nil {
			t.Errorf("fragment %d = %+v, want FRAGMENT_FAILED without chain", i, f)
		}
	}
	if !errors.Is(res.Fragments[0].Err, unit.ErrUnitLoad) {
		t.Errorf("fragment 0 Err = %v, want ErrUnitLoad", res.Fragments[0].Err)
	}
	if res.Fragments[1].Trace == "" {
		t.Error("runtime load failure must carry a backtrace")
	}
	if !errors.Is(res.Fragments[2].Err, unit.ErrInvalidParameter) {
		t.Errorf("fragment 2 Err = %v, want ErrInvalidParameter", res.Fragments[2].Err)
	}
	last := res.Fragments[3]
	if !last.OK() || last.Chain.Results()["call_0"] != int64(42) {
		t.Errorf("last fragment = %+v, want 42", last)
	}
}

func TestRun_ParametersOverrideAndStayIsolated(t *testing.T) {
	r, _ := newRunner(t)
	params := map[string]any{"radius": 5, "opts": map[string]any{"scale": 2}}
	frags := []fragment.Descriptor{{
		SourceText: "radius = 1\ndef scaled():\n    return radius * opts[\"scale\"]\n",
		CallChain:  []string{"radius", "scaled()", `opts["scale"] = 3`},
		Parameters: params,
	}}

	res, err := r.Run(context.Background(), frags)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := res.Fragments[0].Chain.Results()
	if got["call_0"] != int64(5) || got["call_1"] != int64(10) {
		t.Errorf("Results() = %v, want radius=5 scaled()=10", got)
	}
	if params["opts"].(map[string]any)["scale"] != 2 {
		t.Error("caller parameters were mutated")
	}
}

func TestRun_UnresolvableDependencyDoesNotBlock(t *testing.T) {
	log := &mockLogger{}
	r, _ := newRunner(t, WithLogger(log))
	frags := []fragment.Descriptor{{
		SourceText:   "def f():\n    return 7\n",
		CallChain:    []string{"f()"},
		Dependencies: []string{"no_such_module"},
	}}

	res, err := r.Run(context.Background(), frags)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.DependencyErrors) != 1 {
		t.Errorf("DependencyErrors = %v", res.DependencyErrors)
	}
	if res.Fragments[0].Chain.Results()["call_0"] != int64(7) {
		t.Errorf("fragment = %+v, want call_0 = 7", res.Fragments[0])
	}
	if log.count("info") < 2 {
		t.Errorf("log = %s, want session start and finish", log)
	}
	if log.count("warn") != 1 {
		t.Errorf("log = %s, want one dependency warning", log)
	}
}

func TestRun_ScratchUnavailable(t *testing.T) {
	log := &mockLogger{}
	missing := filepath.Join(t.TempDir(), "missing", "deeper")
	r, err := NewRunner(Config{ScratchRoot: missing, Logger: log})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	res, err := r.Run(context.Background(), fragment.Samples())
	if !errors.Is(err, scratch.ErrResource) {
		t.Fatalf("Run() error = %v, want ErrResource", err)
	}
	if res != nil {
		t.Errorf("Run() result = %+v, want nil", res)
	}
	if log.count("error") != 1 {
		t.Errorf("log = %s, want one error", log)
	}
}

func TestRun_CancelledBetweenFragments(t *testing.T) {
	r, root := newRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx, fragment.Samples())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	assertScratchGone(t, res, root)
	for _, f := range res.Fragments {
		if f.State != FragmentFailed || !errors.Is(f.Err, ErrCancelled) {
			t.Errorf("fragment %s = %s %v, want cancelled", f.Key, f.State, f.Err)
		}
	}
}

func TestRun_PanickingLoaderIsContained(t *testing.T) {
	reg := deps.NewRegistry()
	reg.RegisterFactory("boom", func(string) (starlark.StringDict, error) {
		panic("factory exploded")
	})
	r, root := newRunner(t, WithRegistry(reg))
	frags := []fragment.Descriptor{
		{SourceText: "load(\"boom\", \"boom\")\n"},
		{SourceText: "z = 1\n", CallChain: []string{"z"}},
	}

	res, err := r.Run(context.Background(), frags)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	assertScratchGone(t, res, root)
	if res.Fragments[0].OK() || !strings.Contains(res.Fragments[0].Error, "factory exploded") {
		t.Errorf("fragment 0 = %+v, want contained panic", res.Fragments[0])
	}
	if !res.Fragments[1].OK() {
		t.Errorf("fragment 1 = %+v, want success after panic", res.Fragments[1])
	}
}

func TestResult_Map(t *testing.T) {
	r, _ := newRunner(t)
	res, err := r.Run(context.Background(), []fragment.Descriptor{
		{Repo: "repo", Path: "p.star", SourceText: "x = 5\n", CallChain: []string{"1/0", "x"}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	m := res.Map()
	item, ok := m["item_0"].(map[string]any)
	if !ok {
		t.Fatalf("Map() = %v, want item_0", m)
	}
	if item["code_repo"] != "repo" || item["code_path"] != "p.star" {
		t.Errorf("item metadata = %v", item)
	}
	exec := item["execution_result"].(map[string]any)
	if _, ok := exec["call_0_error"]; !ok || exec["call_1"] != int64(5) {
		t.Errorf("execution_result = %v", exec)
	}
}

func TestNewRunner_InvalidConfig(t *testing.T) {
	_, err := NewRunner(Config{ScratchPrefix: "a/b"})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("NewRunner() error = %v, want ErrConfiguration", err)
	}
}

func TestRun_ReportsUnitGlobals(t *testing.T) {
	r, _ := newRunner(t)
	frags := []fragment.Descriptor{
		{
			SourceText: "count = 3\n_hidden = 1\nlabel = \"x\"\ndef f():\n    return count\n",
			CallChain:  []string{"late = 1", "count = 9"},
			Parameters: map[string]any{"label": "override"},
		},
		{SourceText: "value = 1\n"},
		{SourceText: "def broken(:\n"},
	}

	res, err := r.Run(context.Background(), frags)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := map[string]any{"count": int64(3), "label": "override"}
	got := res.Fragments[0].Globals
	if len(got) != len(want) || got["count"] != want["count"] || got["label"] != want["label"] {
		t.Errorf("Globals = %v, want %v", got, want)
	}
	if m := res.Fragments[0].Map(); m["result"] == nil {
		t.Errorf("Map() = %v, want result entry", m)
	}
	if got := res.Fragments[1].Globals; got["value"] != int64(1) {
		t.Errorf("chainless Globals = %v, want value = 1", got)
	}
	if res.Fragments[2].Globals != nil {
		t.Errorf("failed fragment Globals = %v, want nil", res.Fragments[2].Globals)
	}
}
