// SPDX-License-Identifier: MPL-2.0

package modsys

import (
	"github.com/invowk/modsys/pkg/modgraph"
)

// FunctionPlaceholder replaces callable values in Printable output.
const FunctionPlaceholder = "[function]"

// HostFunc is a callable export. Builtins, Lua functions and WebAssembly
// exports all surface to Go as HostFunc, and a HostFunc reaching a Lua
// module is callable from Lua.
type HostFunc func(args ...any) (any, error)

// Export converts exports to plain Go values: Lua tables become maps or
// slices and Lua functions become HostFunc. A *modgraph.Module is replaced by
// its exports.
func (s *System) Export(v any) any {
	switch v := v.(type) {
	case *modgraph.Module:
		return s.Export(v.Exports)
	case *LuaTable:
		return s.Export(v.Value())
	case *LuaFunction:
		return HostFunc(v.Call)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[key] = s.Export(value)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, value := range v {
			out[i] = s.Export(value)
		}
		return out
	default:
		return v
	}
}

// Printable replaces functions in an exported value with
// FunctionPlaceholder so the result can be encoded as JSON, YAML or TOML.
func Printable(v any) any {
	switch v := v.(type) {
	case HostFunc, *LuaFunction, func(args ...any) (any, error):
		return FunctionPlaceholder
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[key] = Printable(value)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, value := range v {
			out[i] = Printable(value)
		}
		return out
	default:
		return v
	}
}
