package unit

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// maxDepth bounds recursion through self-referencing Starlark containers.
const maxDepth = 64

// ToValue converts a Go value, typically decoded from JSON or YAML, into a
// Starlark value. Starlark values pass through unchanged. Map keys are
// inserted in sorted order so the resulting dict iterates deterministically.
func ToValue(x any) (starlark.Value, error) {
	switch v := x.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return v, nil
	case bool:
		return starlark.Bool(v), nil
	case string:
		return starlark.String(v), nil
	case int:
		return starlark.MakeInt(v), nil
	case int8:
		return starlark.MakeInt64(int64(v)), nil
	case int16:
		return starlark.MakeInt64(int64(v)), nil
	case int32:
		return starlark.MakeInt64(int64(v)), nil
	case int64:
		return starlark.MakeInt64(v), nil
	case uint:
		return starlark.MakeUint(v), nil
	case uint8:
		return starlark.MakeUint64(uint64(v)), nil
	case uint16:
		return starlark.MakeUint64(uint64(v)), nil
	case uint32:
		return starlark.MakeUint64(uint64(v)), nil
	case uint64:
		return starlark.MakeUint64(v), nil
	case float32:
		return starlark.Float(v), nil
	case float64:
		return starlark.Float(v), nil
	case json.Number:
		return numberValue(v)
	case []any:
		elems := make([]starlark.Value, len(v))
		for i, e := range v {
			sv, err := ToValue(e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			elems[i] = sv
		}
		return starlark.NewList(elems), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := starlark.NewDict(len(v))
		for _, k := range keys {
			sv, err := ToValue(v[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			if err := d.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return d, nil
	default:
		return reflectValue(reflect.ValueOf(x))
	}
}

func numberValue(n json.Number) (starlark.Value, error) {
	if i, err := n.Int64(); err == nil {
		return starlark.MakeInt64(i), nil
	}
	if bi, ok := new(big.Int).SetString(n.String(), 10); ok {
		return starlark.MakeBigInt(bi), nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("%w: number %q", ErrUnsupportedValue, n)
	}
	return starlark.Float(f), nil
}

func reflectValue(rv reflect.Value) (starlark.Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return starlark.None, nil
		}
		return ToValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		elems := make([]starlark.Value, rv.Len())
		for i := range elems {
			sv, err := ToValue(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			elems[i] = sv
		}
		return starlark.NewList(elems), nil
	case reflect.Map:
		d := starlark.NewDict(rv.Len())
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			sk, err := ToValue(k.Interface())
			if err != nil {
				return nil, err
			}
			sv, err := ToValue(rv.MapIndex(k).Interface())
			if err != nil {
				return nil, fmt.Errorf("key %v: %w", k.Interface(), err)
			}
			if err := d.SetKey(sk, sv); err != nil {
				return nil, err
			}
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, rv.Interface())
	}
}

// FromValue converts a Starlark value into a Go-native value suitable for
// JSON encoding. Values without a data representation (functions, modules)
// and non-finite floats are rendered as their Starlark repr string.
func FromValue(v starlark.Value) any {
	return fromValue(v, 0)
}

func fromValue(v starlark.Value, depth int) any {
	if depth > maxDepth {
		return v.String()
	}
	switch v := v.(type) {
	case nil, starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(v)
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i
		}
		return v.String()
	case starlark.Float:
		f := float64(v)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return v.String()
		}
		return f
	case starlark.String:
		return string(v)
	case starlark.Bytes:
		return string(v)
	case *starlark.List:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = fromValue(v.Index(i), depth+1)
		}
		return out
	case starlark.Tuple:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = fromValue(e, depth+1)
		}
		return out
	case *starlark.Set:
		out := make([]any, 0, v.Len())
		iter := v.Iterate()
		defer iter.Done()
		var e starlark.Value
		for iter.Next(&e) {
			out = append(out, fromValue(e, depth+1))
		}
		return out
	case *starlark.Dict:
		out := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			out[keyString(item[0])] = fromValue(item[1], depth+1)
		}
		return out
	case *starlarkstruct.Struct:
		out := make(map[string]any)
		for _, name := range v.AttrNames() {
			attr, err := v.Attr(name)
			if err != nil {
				continue
			}
			out[name] = fromValue(attr, depth+1)
		}
		return out
	default:
		return v.String()
	}
}

func keyString(k starlark.Value) string {
	if s, ok := k.(starlark.String); ok {
		return string(s)
	}
	return k.String()
}
