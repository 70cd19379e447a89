// SPDX-License-Identifier: MPL-2.0

package modsys

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/invowk/modsys/pkg/modgraph"

	"golang.org/x/exp/maps"
)

const (
	// BuiltinPath is the reserved name of the path helper module.
	BuiltinPath = "path"
	// BuiltinModule is the reserved name of the module-system introspection module.
	BuiltinModule = "module"
)

// Builtins is the permanent table of host-provided modules. Records are
// created on first use and never evicted.
type Builtins struct {
	exports map[string]any
	records map[string]*modgraph.Module
}

func newBuiltins() *Builtins {
	return &Builtins{
		exports: map[string]any{},
		records: map[string]*modgraph.Module{},
	}
}

// Has reports whether name is reserved.
func (b *Builtins) Has(name string) bool {
	_, ok := b.exports[name]
	return ok
}

// Names returns the reserved names, sorted.
func (b *Builtins) Names() []string {
	keys := maps.Keys(b.exports)
	slices.Sort(keys)
	return keys
}

func (b *Builtins) set(name string, exports any) error {
	if name == "" {
		return errors.New("builtin name is empty")
	}
	if _, ok := b.exports[name]; ok {
		return fmt.Errorf("builtin %s is already registered", name)
	}
	b.exports[name] = exports
	return nil
}

// record returns the permanent record for name, creating it on first use.
func (b *Builtins) record(g *modgraph.Graph, name string) *modgraph.Module {
	if m, ok := b.records[name]; ok {
		return m
	}
	m := g.NewBuiltin(name, b.exports[name])
	b.records[name] = m
	return m
}

func pathBuiltin() map[string]any {
	return map[string]any{
		"sep":       string(filepath.Separator),
		"join":      HostFunc(pathJoin),
		"dirname":   stringFunc("dirname", filepath.Dir),
		"basename":  stringFunc("basename", filepath.Base),
		"extname":   stringFunc("extname", filepath.Ext),
		"normalize": stringFunc("normalize", filepath.Clean),
		"isabs":     HostFunc(pathIsAbs),
	}
}

func pathJoin(args ...any) (any, error) {
	parts, err := stringArgs("join", args)
	if err != nil {
		return nil, err
	}
	return filepath.Join(parts...), nil
}

func pathIsAbs(args ...any) (any, error) {
	parts, err := stringArgs("isabs", args)
	if err != nil {
		return nil, err
	}
	if len(parts) != 1 {
		return nil, fmt.Errorf("isabs: expected 1 argument, got %d", len(parts))
	}
	return filepath.IsAbs(parts[0]), nil
}

func moduleBuiltin(builtins, extensions []string) map[string]any {
	return map[string]any{
		"builtins":   toAnySlice(builtins),
		"extensions": toAnySlice(extensions),
	}
}

func stringFunc(name string, f func(string) string) HostFunc {
	return func(args ...any) (any, error) {
		parts, err := stringArgs(name, args)
		if err != nil {
			return nil, err
		}
		if len(parts) != 1 {
			return nil, fmt.Errorf("%s: expected 1 argument, got %d", name, len(parts))
		}
		return f(parts[0]), nil
	}
}

func stringArgs(name string, args []any) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		s, ok := a.(string)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d must be a string, got %T", name, i+1, a)
		}
		out[i] = s
	}
	return out, nil
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
