// SPDX-License-Identifier: MPL-2.0

package modsys

import (
	"math"
	"strconv"

	"github.com/Shopify/go-lua"
)

// maxTableDepth bounds conversion of self-referencing tables.
const maxTableDepth = 32

// pushGo pushes a Go value onto l. Values with no Lua counterpart are pushed
// as userdata.
func (rt *luaRuntime) pushGo(l *lua.State, v any) {
	switch v := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(v)
	case string:
		l.PushString(v)
	case int:
		l.PushInteger(v)
	case int32:
		l.PushInteger(int(v))
	case int64:
		l.PushNumber(float64(v))
	case uint32:
		l.PushNumber(float64(v))
	case uint64:
		l.PushNumber(float64(v))
	case float32:
		l.PushNumber(float64(v))
	case float64:
		l.PushNumber(v)
	case *LuaTable:
		v.push(l)
	case *LuaFunction:
		v.push(l)
	case HostFunc:
		l.PushGoFunction(rt.hostFunction(v))
	case func(args ...any) (any, error):
		l.PushGoFunction(rt.hostFunction(v))
	case map[string]any:
		l.CreateTable(0, len(v))
		for key, value := range v {
			rt.pushGo(l, value)
			l.SetField(-2, key)
		}
	case []any:
		l.CreateTable(len(v), 0)
		for i, value := range v {
			rt.pushGo(l, value)
			l.RawSetInt(-2, i+1)
		}
	case []string:
		l.CreateTable(len(v), 0)
		for i, value := range v {
			l.PushString(value)
			l.RawSetInt(-2, i+1)
		}
	default:
		l.PushUserData(v)
	}
}

// hostFunction exposes f to Lua. Arguments are converted with toGo and a
// returned error is raised as a Lua error.
func (rt *luaRuntime) hostFunction(f HostFunc) lua.Function {
	return func(l *lua.State) int {
		args := make([]any, l.Top())
		for i := range args {
			args[i] = rt.toGo(l, i+1)
		}
		out, err := f(args...)
		if err != nil {
			lua.Errorf(l, "%s", err.Error())
			return 0
		}
		rt.pushGo(l, out)
		return 1
	}
}

// toGo converts the value at index to Go. Integral numbers become int.
func (rt *luaRuntime) toGo(l *lua.State, index int) any {
	return rt.toGoDepth(l, index, 0)
}

func (rt *luaRuntime) toGoDepth(l *lua.State, index, depth int) any {
	switch l.TypeOf(index) {
	case lua.TypeString:
		value, _ := l.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := l.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	case lua.TypeTable:
		if depth >= maxTableDepth {
			return nil
		}
		return rt.tableToGo(l, index, depth+1)
	case lua.TypeFunction:
		return rt.refFunction(l, index)
	case lua.TypeUserData:
		return l.ToUserData(index)
	default:
		return nil
	}
}

// tableToGo converts a sequence to []any and any other table to a map.
// Numeric keys of a non-sequence are formatted as strings.
func (rt *luaRuntime) tableToGo(l *lua.State, index, depth int) any {
	index = l.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	l.PushNil()
	for l.Next(index) {
		if isArray {
			if l.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := l.ToInteger(-2); ok && idx > 0 {
				count++
				maxIndex = max(maxIndex, idx)
			} else {
				isArray = false
			}
		}
		l.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			l.RawGetInt(index, i)
			result = append(result, rt.toGoDepth(l, -1, depth))
			l.Pop(1)
		}
		return result
	}

	output := map[string]any{}
	l.PushNil()
	for l.Next(index) {
		switch l.TypeOf(-2) {
		case lua.TypeString:
			key, _ := l.ToString(-2)
			output[key] = rt.toGoDepth(l, -1, depth)
		case lua.TypeNumber:
			key, _ := l.ToNumber(-2)
			output[strconv.FormatFloat(key, 'f', -1, 64)] = rt.toGoDepth(l, -1, depth)
		}
		l.Pop(1)
	}
	return output
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 && math.Abs(value) < 1<<53 {
		return int(value)
	}
	return value
}
