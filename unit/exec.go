package unit

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/jonwraymond/codechain/deps"
)

// Exec parses src and runs its statements against the handle's namespace.
// Names already in the namespace stay live: functions defined here look
// them up when called, so later rebinding or injection is visible. later
// names bindings that do not exist yet but will be made before the
// functions run; a nil map means none. Bindings made before a failure are
// kept.
func (h *Handle) Exec(filename, src string, later map[string]bool) error {
	f, err := deps.FileOptions().Parse(filename, src, 0)
	if err != nil {
		return err
	}
	return h.execFile(f, func(name string) bool { return later[name] })
}

// BoundNames returns the names the sources bind outside function bodies.
// Sources that do not parse contribute nothing.
func BoundNames(srcs ...string) map[string]bool {
	names := make(map[string]bool)
	for _, src := range srcs {
		f, err := deps.FileOptions().Parse("bound", src, 0)
		if err != nil {
			continue
		}
		for name := range topLevelNames(f) {
			names[name] = true
		}
	}
	return names
}

// execFile runs each top-level statement of f as its own program. later
// reports names bound elsewhere (further down the file, or injected after
// load) that function bodies may reference before they exist.
func (h *Handle) execFile(f *syntax.File, later func(string) bool) error {
	if later == nil {
		later = func(string) bool { return false }
	}
	for _, stmt := range f.Stmts {
		if err := h.execStmt(f, stmt, later); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handle) execStmt(f *syntax.File, stmt syntax.Stmt, later func(string) bool) error {
	ns := h.namespace
	lazy := false
	switch s := stmt.(type) {
	case *syntax.DefStmt:
		lazy = true
	case *syntax.AssignStmt:
		target, rhs, ok := nameAssign(s)
		if ok && !mentions(rhs, ns, later) {
			v, err := starlark.EvalExprOptions(f.Options, h.thread, rhs, ns)
			if err != nil {
				return err
			}
			return bind(ns, target, v)
		}
		lazy = ok
	}

	chunk := &syntax.File{Path: f.Path, Stmts: []syntax.Stmt{stmt}, Options: f.Options}
	if !lazy {
		// Loops, conditionals and loads start from the current bindings and
		// write every global they touch back.
		return starlark.ExecREPLChunk(chunk, h.thread, ns)
	}

	// Functions resolve namespace names when called, not when defined.
	isPredeclared := func(name string) bool {
		return ns.Has(name) || later(name)
	}
	prog, err := starlark.FileProgram(chunk, isPredeclared)
	if err != nil {
		return err
	}
	globals, err := prog.Init(h.thread, ns)
	for name, v := range globals {
		ns[name] = v
	}
	return err
}

// mentions reports whether e refers to a name that is not bound yet but
// will be. Such expressions take the program path, where the name
// resolves when it is used.
func mentions(e syntax.Expr, ns starlark.StringDict, later func(string) bool) bool {
	found := false
	syntax.Walk(e, func(n syntax.Node) bool {
		if id, ok := n.(*syntax.Ident); ok && !ns.Has(id.Name) && later(id.Name) {
			found = true
		}
		return !found
	})
	return found
}

var augmented = map[syntax.Token]syntax.Token{
	syntax.PLUS_EQ:       syntax.PLUS,
	syntax.MINUS_EQ:      syntax.MINUS,
	syntax.STAR_EQ:       syntax.STAR,
	syntax.SLASH_EQ:      syntax.SLASH,
	syntax.SLASHSLASH_EQ: syntax.SLASHSLASH,
	syntax.PERCENT_EQ:    syntax.PERCENT,
	syntax.AMP_EQ:        syntax.AMP,
	syntax.PIPE_EQ:       syntax.PIPE,
	syntax.CIRCUMFLEX_EQ: syntax.CIRCUMFLEX,
	syntax.LTLT_EQ:       syntax.LTLT,
	syntax.GTGT_EQ:       syntax.GTGT,
}

// nameAssign returns the target and value expression of an assignment
// whose targets are plain names, such as "x = e", "a, b = e" or "x += e".
// The value is evaluated before any target is rebound, so the right-hand
// side sees current bindings.
func nameAssign(stmt *syntax.AssignStmt) (syntax.Expr, syntax.Expr, bool) {
	if !namesOnly(stmt.LHS) {
		return nil, nil, false
	}
	if stmt.Op == syntax.EQ {
		return stmt.LHS, stmt.RHS, true
	}
	id, ok := stmt.LHS.(*syntax.Ident)
	op, known := augmented[stmt.Op]
	if !ok || !known {
		return nil, nil, false
	}
	return id, &syntax.BinaryExpr{X: id, OpPos: stmt.OpPos, Op: op, Y: stmt.RHS}, true
}

func namesOnly(e syntax.Expr) bool {
	switch e := e.(type) {
	case *syntax.Ident:
		return true
	case *syntax.ParenExpr:
		return namesOnly(e.X)
	case *syntax.TupleExpr:
		return allNames(e.List)
	case *syntax.ListExpr:
		return allNames(e.List)
	default:
		return false
	}
}

func allNames(list []syntax.Expr) bool {
	for _, e := range list {
		if !namesOnly(e) {
			return false
		}
	}
	return len(list) > 0
}

func bind(ns starlark.StringDict, target syntax.Expr, v starlark.Value) error {
	switch t := target.(type) {
	case *syntax.Ident:
		ns[t.Name] = v
		return nil
	case *syntax.ParenExpr:
		return bind(ns, t.X, v)
	case *syntax.TupleExpr:
		return unpack(ns, t.List, v)
	case *syntax.ListExpr:
		return unpack(ns, t.List, v)
	default:
		return fmt.Errorf("can't assign to %T", target)
	}
}

func unpack(ns starlark.StringDict, targets []syntax.Expr, v starlark.Value) error {
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return fmt.Errorf("got %s in sequence assignment", v.Type())
	}
	var elems []starlark.Value
	iter := iterable.Iterate()
	defer iter.Done()
	var x starlark.Value
	for iter.Next(&x) {
		if len(elems) == len(targets) {
			return fmt.Errorf("too many values to unpack (got %d+, want %d)", len(elems)+1, len(targets))
		}
		elems = append(elems, x)
	}
	if len(elems) < len(targets) {
		return fmt.Errorf("too few values to unpack (got %d, want %d)", len(elems), len(targets))
	}
	for i, t := range targets {
		if err := bind(ns, t, elems[i]); err != nil {
			return err
		}
	}
	return nil
}

// topLevelNames returns every name a file binds outside function bodies.
func topLevelNames(f *syntax.File) map[string]bool {
	names := make(map[string]bool)
	var stmts func([]syntax.Stmt)
	var targets func(syntax.Expr)
	targets = func(e syntax.Expr) {
		switch e := e.(type) {
		case *syntax.Ident:
			names[e.Name] = true
		case *syntax.ParenExpr:
			targets(e.X)
		case *syntax.TupleExpr:
			for _, x := range e.List {
				targets(x)
			}
		case *syntax.ListExpr:
			for _, x := range e.List {
				targets(x)
			}
		}
	}
	stmts = func(list []syntax.Stmt) {
		for _, s := range list {
			switch s := s.(type) {
			case *syntax.DefStmt:
				names[s.Name.Name] = true
			case *syntax.AssignStmt:
				targets(s.LHS)
			case *syntax.LoadStmt:
				for _, id := range s.To {
					names[id.Name] = true
				}
			case *syntax.ForStmt:
				targets(s.Vars)
				stmts(s.Body)
			case *syntax.WhileStmt:
				stmts(s.Body)
			case *syntax.IfStmt:
				stmts(s.True)
				stmts(s.False)
			}
		}
	}
	stmts(f.Stmts)
	return names
}
