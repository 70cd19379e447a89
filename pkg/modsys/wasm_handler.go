// SPDX-License-Identifier: MPL-2.0

package modsys

import (
	"context"
	"fmt"

	"github.com/invowk/modsys/pkg/modgraph"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// wasmRuntime is the WebAssembly runtime shared by every .wasm module of a System.
type wasmRuntime struct {
	runtime wazero.Runtime
}

func (s *System) wasmRuntime() *wasmRuntime {
	if s.wasm == nil {
		r := wazero.NewRuntime(s.ctx)
		wasi_snapshot_preview1.MustInstantiate(s.ctx, r)
		s.wasm = &wasmRuntime{runtime: r}
	}
	return s.wasm
}

func (w *wasmRuntime) close(ctx context.Context) error {
	return w.runtime.Close(ctx)
}

// LoadWasm compiles and instantiates a WebAssembly module. Every exported
// function becomes a HostFunc export taking and returning numbers. WASI is
// available; a reactor's _initialize runs at instantiation.
func LoadWasm(s *System, m *modgraph.Module, filename string) error {
	bin, err := s.readFile(filename)
	if err != nil {
		return err
	}

	w := s.wasmRuntime()
	compiled, err := w.runtime.CompileModule(s.ctx, bin)
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", filename, err)
	}

	config := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize").
		WithStdout(s.stdout).
		WithStderr(s.stderr)
	if s.stdin != nil {
		config = config.WithStdin(s.stdin)
	}
	mod, err := w.runtime.InstantiateModule(s.ctx, compiled, config)
	if err != nil {
		return fmt.Errorf("failed to instantiate %s: %w", filename, err)
	}

	exports := map[string]any{}
	for name, def := range mod.ExportedFunctionDefinitions() {
		exports[name] = s.wasmFunc(mod.ExportedFunction(name), def)
	}
	m.Exports = exports
	return nil
}

func (s *System) wasmFunc(fn api.Function, def api.FunctionDefinition) HostFunc {
	params := def.ParamTypes()
	results := def.ResultTypes()
	return func(args ...any) (any, error) {
		if len(args) != len(params) {
			return nil, fmt.Errorf("%s: expected %d arguments, got %d", def.Name(), len(params), len(args))
		}
		stack := make([]uint64, len(args))
		for i, arg := range args {
			v, err := encodeWasmValue(arg, params[i])
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", def.Name(), i+1, err)
			}
			stack[i] = v
		}

		out, err := fn.Call(s.ctx, stack...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", def.Name(), err)
		}

		switch len(out) {
		case 0:
			return nil, nil
		case 1:
			return decodeWasmValue(out[0], results[0]), nil
		default:
			values := make([]any, len(out))
			for i, v := range out {
				values[i] = decodeWasmValue(v, results[i])
			}
			return values, nil
		}
	}
}

func encodeWasmValue(arg any, t api.ValueType) (uint64, error) {
	var f float64
	switch v := arg.(type) {
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		if t == api.ValueTypeI64 {
			return api.EncodeI64(v), nil
		}
		f = float64(v)
	case float32:
		f = float64(v)
	case float64:
		f = v
	case bool:
		if v {
			f = 1
		}
	default:
		return 0, fmt.Errorf("cannot pass %T to WebAssembly", arg)
	}

	switch t {
	case api.ValueTypeI32:
		return api.EncodeI32(int32(f)), nil
	case api.ValueTypeI64:
		return api.EncodeI64(int64(f)), nil
	case api.ValueTypeF32:
		return api.EncodeF32(float32(f)), nil
	case api.ValueTypeF64:
		return api.EncodeF64(f), nil
	default:
		return 0, fmt.Errorf("unsupported parameter type %s", api.ValueTypeName(t))
	}
}

func decodeWasmValue(v uint64, t api.ValueType) any {
	switch t {
	case api.ValueTypeI32:
		return int(api.DecodeI32(v))
	case api.ValueTypeI64:
		return int64(v)
	case api.ValueTypeF32:
		return float64(api.DecodeF32(v))
	case api.ValueTypeF64:
		return api.DecodeF64(v)
	default:
		return v
	}
}
