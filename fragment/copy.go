package fragment

import "encoding/json"

// CopyParameters returns a deep copy of a parameter mapping so execution
// cannot alias caller-owned maps or slices.
func CopyParameters(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return CopyParameters(val)
	case []any:
		return copySlice(val)
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, s := range val {
			out[k] = s
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	default:
		if cp, ok := copyViaJSON(val); ok {
			return cp
		}
		return val
	}
}

func copySlice(s []any) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = copyValue(v)
	}
	return out
}

func copyViaJSON(v any) (any, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}
