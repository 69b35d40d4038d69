// Package starlark evaluates Starlark rule catalogs.
//
// A catalog script declares its rules through two builtins:
//
//	plugin(prefix = "vue/")
//	rule("no-foo", categories = ["essential", "vue3-essential"])
//	rule("html-indent",
//	    categories = ["strongly-recommended"],
//	    default_options = {"vue3": [2, {"baseIndent": 1}]},
//	)
//
// The globals "families" and "tiers" list the known family tags and tier IDs.
package starlark

import (
	"github.com/cockroachdb/errors"
	"go.starlark.net/starlark"
)

// GoToStarlark converts a Go value to a Starlark value.
// Supported types: string, int, int64, float64, bool, []string, []any, map[string]any
func GoToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case string:
		return starlark.String(val), nil

	case int:
		return starlark.MakeInt(val), nil

	case int64:
		return starlark.MakeInt64(val), nil

	case float64:
		return starlark.Float(val), nil

	case bool:
		return starlark.Bool(val), nil

	case []string:
		list := make([]starlark.Value, len(val))
		for i, s := range val {
			list[i] = starlark.String(s)
		}
		return starlark.NewList(list), nil

	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, errors.Wrapf(err, "list index %d", i)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, v := range val {
			sv, err := GoToStarlark(v)
			if err != nil {
				return nil, errors.Wrapf(err, "dict key %q", k)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, errors.Wrapf(err, "dict setkey %q", k)
			}
		}
		return dict, nil

	default:
		return nil, errors.Newf("unsupported type: %T", v)
	}
}

// ToGo converts a Starlark value back to a Go value.
// Returns: string, int64, float64, bool, []any, map[string]any, or nil
func ToGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil

	case starlark.String:
		return string(val), nil

	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			return nil, errors.Newf("integer %s out of range", val.String())
		}
		return i64, nil

	case starlark.Float:
		return float64(val), nil

	case starlark.Bool:
		return bool(val), nil

	case *starlark.List:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, errors.Wrapf(err, "list index %d", i)
			}
			result[i] = gv
		}
		return result, nil

	case starlark.Tuple:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, errors.Wrapf(err, "tuple index %d", i)
			}
			result[i] = gv
		}
		return result, nil

	case *starlark.Dict:
		result := make(map[string]any)
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, errors.Newf("dict key must be string, got %s", item[0].Type())
			}
			gv, err := ToGo(item[1])
			if err != nil {
				return nil, errors.Wrapf(err, "dict key %q", string(key))
			}
			result[string(key)] = gv
		}
		return result, nil

	default:
		return nil, errors.Newf("cannot convert %s to a catalog value", v.Type())
	}
}
