package unit

import (
	"fmt"

	"go.starlark.net/starlark"
)

// Inject binds each parameter into the unit's namespace, overwriting any
// prior binding of the same name, including the unit's own definitions.
// All values are converted before any binding happens, so a contract
// violation leaves the namespace untouched.
func Inject(h *Handle, params map[string]any) error {
	converted := make(starlark.StringDict, len(params))
	for name, value := range params {
		if name == "" {
			return fmt.Errorf("%w: empty parameter name", ErrInvalidParameter)
		}
		v, err := ToValue(value)
		if err != nil {
			return fmt.Errorf("%w: parameter %q: %v", ErrInvalidParameter, name, err)
		}
		converted[name] = v
	}
	for name, v := range converted {
		h.namespace[name] = v
	}
	return nil
}
