// SPDX-License-Identifier: MPL-2.0

package modsys

import (
	"context"
	"testing"
)

// answerWasm exports answer() -> i32 returning 42.
var answerWasm = string([]byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type section: () -> i32
	0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f,
	// function section
	0x03, 0x02, 0x01, 0x00,
	// export section: "answer"
	0x07, 0x0a, 0x01, 0x06, 'a', 'n', 's', 'w', 'e', 'r', 0x00, 0x00,
	// code section: i32.const 42
	0x0a, 0x06, 0x01, 0x04, 0x00, 0x41, 0x2a, 0x0b,
})

func TestLoadWasm(t *testing.T) {
	t.Parallel()

	s := newTestSystem(t, map[string]string{"/proj/answer.wasm": answerWasm})
	m := mustRunMain(t, s, "./answer")

	exports := exportedMap(t, s, m.Exports)
	answer, ok := exports["answer"].(HostFunc)
	if !ok {
		t.Fatalf("answer = %T, want HostFunc", exports["answer"])
	}
	got, err := answer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("answer() = %v, want 42", got)
	}

	if _, err := answer(1); err == nil {
		t.Error("expected arity error, got nil")
	}
	if Printable(exports).(map[string]any)["answer"] != FunctionPlaceholder {
		t.Error("wasm functions should print as placeholders")
	}
}

func TestLoadWasm_FromLua(t *testing.T) {
	t.Parallel()

	s := newTestSystem(t, map[string]string{
		"/proj/answer.wasm": answerWasm,
		"/proj/main.lua":    `exports.value = require("./answer.wasm").answer() + 1`,
	})
	m := mustRunMain(t, s, "./main.lua")

	if got := exportedMap(t, s, m.Exports)["value"]; got != 43 {
		t.Errorf("value = %v, want 43", got)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadWasm_InvalidBinary(t *testing.T) {
	t.Parallel()

	s := newTestSystem(t, map[string]string{"/proj/bad.wasm": "not wasm"})
	if _, err := s.RunMain("./bad.wasm"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
