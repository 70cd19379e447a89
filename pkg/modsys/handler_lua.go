// SPDX-License-Identifier: MPL-2.0

package modsys

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/invowk/modsys/pkg/modgraph"

	"github.com/Shopify/go-lua"
)

const (
	// luaExportsRegistry maps per-record refs to live exports tables.
	luaExportsRegistry = "modsys.exports"
	// luaFuncsRegistry holds Lua functions referenced from Go.
	luaFuncsRegistry = "modsys.funcs"

	// luaPrelude binds the module arguments. It shares the first line with
	// the module source so error positions match the file.
	luaPrelude = "local __filename, __dirname, require, module, exports = ...; "
)

type (
	// luaRuntime is the Lua state shared by every Lua module of a System.
	luaRuntime struct {
		state *lua.State
		// pending is the Go error behind the Lua error currently unwinding
		// out of a require call.
		pending error
		nextRef int
	}

	// LuaTable is the live exports table of one Lua module record. Records
	// sharing an id, such as a reloaded entry, own separate tables.
	LuaTable struct {
		rt  *luaRuntime
		id  string
		ref int
	}

	// LuaFunction is a Lua function value reachable from Go.
	LuaFunction struct {
		rt  *luaRuntime
		ref int
	}
)

func (s *System) luaRuntime() *luaRuntime {
	if s.lua == nil {
		s.lua = &luaRuntime{state: newLuaState()}
	}
	return s.lua
}

// newLuaState opens the libraries that cannot reach the host filesystem or
// module loader. Modules load each other only through the injected require.
func newLuaState() *lua.State {
	state := lua.NewState()
	for _, lib := range []lua.RegistryFunction{
		{Name: "_G", Function: lua.BaseOpen},
		{Name: "string", Function: lua.StringOpen},
		{Name: "table", Function: lua.TableOpen},
		{Name: "math", Function: lua.MathOpen},
		{Name: "bit32", Function: lua.Bit32Open},
	} {
		lua.Require(state, lib.Name, lib.Function, true)
		state.Pop(1)
	}
	for _, name := range []string{"require", "dofile", "loadfile"} {
		state.PushNil()
		state.SetGlobal(name)
	}
	return state
}

// LoadLua runs a Lua chunk as a module. The chunk receives __filename,
// __dirname, require, module and exports; module.exports after the chunk
// returns becomes the module's exports.
func LoadLua(s *System, m *modgraph.Module, filename string) error {
	src, err := s.readFile(filename)
	if err != nil {
		return err
	}

	rt := s.luaRuntime()
	l := rt.state
	top := l.Top()
	defer l.SetTop(top)

	l.NewTable()
	exportsIdx := l.Top()
	rt.nextRef++
	exports := &LuaTable{rt: rt, id: m.ID, ref: rt.nextRef}
	exports.set(l, exportsIdx)
	m.Exports = exports

	rt.pushModuleTable(l, m, exportsIdx)
	moduleIdx := l.Top()

	if err := lua.LoadBuffer(l, luaPrelude+stripShebang(string(src)), "@"+filename, ""); err != nil {
		return fmt.Errorf("failed to compile %s: %w", filename, err)
	}
	l.PushString(filename)
	l.PushString(filepath.Dir(filename))
	l.PushGoFunction(rt.requireFunc(m))
	l.PushValue(moduleIdx)
	l.PushValue(exportsIdx)

	if err := l.ProtectedCall(5, 0, 0); err != nil {
		return rt.takeError(err, filename)
	}
	rt.pending = nil

	l.Field(moduleIdx, "exports")
	if l.IsTable(-1) {
		exports.set(l, l.Top())
	} else {
		m.Exports = rt.toGo(l, -1)
	}
	return nil
}

// stripShebang blanks a leading "#" line, keeping the newline so error
// positions still match the file.
func stripShebang(src string) string {
	if !strings.HasPrefix(src, "#") {
		return src
	}
	if i := strings.IndexByte(src, '\n'); i >= 0 {
		return src[i:]
	}
	return ""
}

func (rt *luaRuntime) pushModuleTable(l *lua.State, m *modgraph.Module, exportsIdx int) {
	l.NewTable()
	l.PushString(m.ID)
	l.SetField(-2, "id")
	l.PushString(m.Filename)
	l.SetField(-2, "filename")
	if m.Parent != nil {
		l.PushString(m.Parent.ID)
	} else {
		l.PushNil()
	}
	l.SetField(-2, "parent")
	if m.Main != nil {
		l.PushString(m.Main.ID)
	} else {
		l.PushNil()
	}
	l.SetField(-2, "main")
	l.PushValue(exportsIdx)
	l.SetField(-2, "exports")
	l.PushGoFunction(rt.requireFunc(m))
	l.SetField(-2, "require")
	l.PushGoFunction(func(l *lua.State) int {
		resolved, err := m.Resolve(lua.CheckString(l, 1))
		if err != nil {
			lua.Errorf(l, "%s", err.Error())
			return 0
		}
		l.PushString(resolved)
		return 1
	})
	l.SetField(-2, "resolve")

	// cache and extensions are computed on access so they reflect modules
	// loaded after this one started.
	l.NewTable()
	l.PushGoFunction(func(l *lua.State) int {
		var names []string
		switch key, _ := l.ToString(2); key {
		case "cache":
			if m.Cache != nil {
				names = m.Cache.IDs()
			}
		case "extensions":
			if m.Extensions != nil {
				names = m.Extensions.Names()
			}
		default:
			l.PushNil()
			return 1
		}
		rt.pushGo(l, names)
		return 1
	})
	l.SetField(-2, "__index")
	l.SetMetaTable(-2)
}

// requireFunc returns the require function bound to m. Failures keep their
// Go error in pending while the Lua error unwinds.
func (rt *luaRuntime) requireFunc(m *modgraph.Module) lua.Function {
	return func(l *lua.State) int {
		v, err := m.Require(lua.CheckString(l, 1))
		if err != nil {
			rt.pending = err
			lua.Errorf(l, "%s", err.Error())
			return 0
		}
		rt.pushGo(l, v)
		return 1
	}
}

// takeError returns the Go error behind a failed chunk when the Lua error
// came from require, or wraps the Lua error otherwise.
func (rt *luaRuntime) takeError(err error, filename string) error {
	pending := rt.pending
	rt.pending = nil
	if pending != nil && strings.Contains(err.Error(), pending.Error()) {
		return pending
	}
	return fmt.Errorf("failed to run %s: %w", filename, err)
}

// registryTable pushes the registry sub-table name, creating it if needed.
func registryTable(l *lua.State, name string) {
	l.Field(lua.RegistryIndex, name)
	if l.IsTable(-1) {
		return
	}
	l.Pop(1)
	l.NewTable()
	l.PushValue(-1)
	l.SetField(lua.RegistryIndex, name)
}

// set stores the table at idx as t's live exports.
func (t *LuaTable) set(l *lua.State, idx int) {
	idx = l.AbsIndex(idx)
	registryTable(l, luaExportsRegistry)
	l.PushValue(idx)
	l.RawSetInt(-2, t.ref)
	l.Pop(1)
}

// push pushes the live exports table.
func (t *LuaTable) push(l *lua.State) {
	registryTable(l, luaExportsRegistry)
	l.RawGetInt(-1, t.ref)
	l.Remove(-2)
}

// ID returns the id of the module owning the table.
func (t *LuaTable) ID() string { return t.id }

// Value converts the table's current contents to Go values. Nested tables
// become maps or slices; functions become *LuaFunction.
func (t *LuaTable) Value() any {
	l := t.rt.state
	top := l.Top()
	defer l.SetTop(top)
	t.push(l)
	return t.rt.toGo(l, -1)
}

func (rt *luaRuntime) refFunction(l *lua.State, idx int) *LuaFunction {
	idx = l.AbsIndex(idx)
	rt.nextRef++
	registryTable(l, luaFuncsRegistry)
	l.PushValue(idx)
	l.RawSetInt(-2, rt.nextRef)
	l.Pop(1)
	return &LuaFunction{rt: rt, ref: rt.nextRef}
}

func (f *LuaFunction) push(l *lua.State) {
	registryTable(l, luaFuncsRegistry)
	l.RawGetInt(-1, f.ref)
	l.Remove(-2)
}

// Call invokes the function with args converted to Lua values and returns
// its first result converted back.
func (f *LuaFunction) Call(args ...any) (any, error) {
	l := f.rt.state
	top := l.Top()
	defer l.SetTop(top)

	f.push(l)
	for _, a := range args {
		f.rt.pushGo(l, a)
	}
	if err := l.ProtectedCall(len(args), 1, 0); err != nil {
		return nil, fmt.Errorf("lua call failed: %w", err)
	}
	return f.rt.toGo(l, -1), nil
}
