package chain

import (
	"strings"

	"go.starlark.net/syntax"

	"github.com/jonwraymond/codechain/deps"
)

// Kind is the classification of a call-chain line.
type Kind string

// Line kinds.
const (
	// KindDefinition introduces a function (or, for the legacy heuristic, a class).
	KindDefinition Kind = "definition"

	// KindAssignment binds names; no value is captured.
	KindAssignment Kind = "assignment"

	// KindStatement is any other statement (load, for, if, pass); no value is captured.
	KindStatement Kind = "statement"

	// KindExpression is evaluated and its value captured.
	KindExpression Kind = "expression"
)

// Captures reports whether lines of this kind produce a captured value.
func (k Kind) Captures() bool {
	return k == KindExpression
}

// Classifier decides how a line is executed.
type Classifier func(line string) Kind

// ClassifySyntax classifies a line by parsing it. Keyword arguments and
// comparisons such as f(x=1) or a == b stay expressions. Lines that do not
// parse fall back to ClassifyLegacy so they still get a kind; executing them
// then records the syntax error.
func ClassifySyntax(line string) Kind {
	src := strings.TrimSpace(line)
	if src == "" {
		return KindStatement
	}
	f, err := deps.FileOptions().Parse("line", src, 0)
	if err != nil {
		return ClassifyLegacy(line)
	}
	if len(f.Stmts) == 0 {
		return KindStatement
	}
	switch f.Stmts[0].(type) {
	case *syntax.DefStmt:
		return KindDefinition
	case *syntax.AssignStmt:
		return KindAssignment
	case *syntax.ExprStmt:
		if len(f.Stmts) == 1 {
			return KindExpression
		}
		return KindStatement
	default:
		return KindStatement
	}
}

// ClassifyLegacy reproduces the textual heuristic: a "def " or "class "
// prefix is a definition, any "=" makes an assignment, everything else is an
// expression. It misclassifies f(x=1) and a == b as assignments; those lines
// then run as statements and capture nothing.
func ClassifyLegacy(line string) Kind {
	src := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(src, "def "), strings.HasPrefix(src, "class "):
		return KindDefinition
	case strings.Contains(line, "="):
		return KindAssignment
	default:
		return KindExpression
	}
}
