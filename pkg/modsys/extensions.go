// SPDX-License-Identifier: MPL-2.0

package modsys

import (
	"fmt"
	"slices"
	"strings"

	"github.com/invowk/modsys/pkg/modgraph"
)

const (
	extLua  = ".lua"
	extJSON = ".json"
	extCUE  = ".cue"
	extTOML = ".toml"
	extYAML = ".yaml"
	extYML  = ".yml"
	extSh   = ".sh"
	extWasm = ".wasm"
)

// DefaultExtensionOrder is the probe order of the built-in handlers.
var DefaultExtensionOrder = []string{extLua, extJSON, extCUE, extTOML, extYAML, extYML, extSh, extWasm}

// DefaultExtension is the handler used for files with an unregistered extension.
const DefaultExtension = extLua

type (
	// Handler populates m's exports from the file at filename. The record is
	// already registered in s's cache when a handler runs.
	Handler func(s *System, m *modgraph.Module, filename string) error

	// Extensions is the ordered extension table. Registration order is the
	// resolver's probe order.
	Extensions struct {
		names    []string
		handlers map[string]Handler
		fallback string
	}
)

func builtinHandlers() map[string]Handler {
	return map[string]Handler{
		extLua:  LoadLua,
		extJSON: LoadJSON,
		extCUE:  LoadCUE,
		extTOML: LoadTOML,
		extYAML: LoadYAML,
		extYML:  LoadYAML,
		extSh:   LoadShell,
		extWasm: LoadWasm,
	}
}

func newExtensions() *Extensions {
	return &Extensions{handlers: map[string]Handler{}}
}

// Names returns the registered extensions in registration order.
func (e *Extensions) Names() []string { return slices.Clone(e.names) }

// Has reports whether ext has a handler.
func (e *Extensions) Has(ext string) bool {
	_, ok := e.handlers[ext]
	return ok
}

// Default returns the fallback extension.
func (e *Extensions) Default() string { return e.fallback }

// Register adds or replaces the handler for ext. A new extension is appended
// to the probe order; replacing keeps its position.
func (e *Extensions) Register(ext string, h Handler) error {
	ext, err := normalizeExt(ext)
	if err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("handler for %s is nil", ext)
	}
	if _, ok := e.handlers[ext]; !ok {
		e.names = append(e.names, ext)
	}
	e.handlers[ext] = h
	return nil
}

// Handler returns the handler for ext, falling back to the default handler.
func (e *Extensions) Handler(ext string) (Handler, bool) {
	if h, ok := e.handlers[ext]; ok {
		return h, true
	}
	h, ok := e.handlers[e.fallback]
	return h, ok
}

func (e *Extensions) setDefault(ext string) error {
	ext, err := normalizeExt(ext)
	if err != nil {
		return err
	}
	if !e.Has(ext) {
		return fmt.Errorf("default extension %s has no handler", ext)
	}
	e.fallback = ext
	return nil
}

func normalizeExt(ext string) (string, error) {
	ext = strings.TrimSpace(ext)
	if ext == "" || ext == "." {
		return "", fmt.Errorf("invalid extension %q", ext)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if strings.ContainsAny(ext, `/\`) {
		return "", fmt.Errorf("invalid extension %q", ext)
	}
	return ext, nil
}
