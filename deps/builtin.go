package deps

import (
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	starlarkjson "go.starlark.net/lib/json"
	starlarkmath "go.starlark.net/lib/math"
	starlarktime "go.starlark.net/lib/time"
)

// Builtins lists the module names importable without a search path.
var Builtins = []string{"json", "math", "struct", "time"}

func builtinFactories() map[string]Factory {
	return map[string]Factory{
		"math":   constModule("math", starlarkmath.Module),
		"time":   constModule("time", starlarktime.Module),
		"json":   constModule("json", starlarkjson.Module),
		"struct": constModule("struct", starlark.NewBuiltin("struct", starlarkstruct.Make)),
	}
}

func constModule(name string, v starlark.Value) Factory {
	return func(string) (starlark.StringDict, error) {
		return starlark.StringDict{name: v}, nil
	}
}
