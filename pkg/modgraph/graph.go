// SPDX-License-Identifier: MPL-2.0

package modgraph

import (
	"io"

	"github.com/charmbracelet/log"
)

type (
	// CachedFunc returns the record already registered for specifier, or nil.
	// referrer is the requiring module; specifier is usually already resolved.
	CachedFunc func(referrer *Module, specifier string) (*Module, error)

	// ResolveFunc maps specifier to a canonical path. referrer is nil for
	// root-context resolution.
	ResolveFunc func(referrer *Module, specifier string) (string, error)

	// LoadFunc populates m's export bindings from the file at filename. It is
	// responsible for registering m in its cache before running the body.
	LoadFunc func(m *Module, filename string) error

	// Option configures a Graph.
	Option func(*Graph)

	// Graph constructs and loads module records.
	Graph struct {
		cached  CachedFunc
		resolve ResolveFunc
		load    LoadFunc
		logger  *log.Logger

		// main is the shared entry reference stamped onto records as they load.
		main *Module
	}
)

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(g *Graph) { g.logger = l }
}

// New creates a Graph over the given collaborators.
func New(cached CachedFunc, resolve ResolveFunc, load LoadFunc, opts ...Option) *Graph {
	g := &Graph{
		cached:  cached,
		resolve: resolve,
		load:    load,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard)
	}
	return g
}

// NewModule constructs an unloaded record. When parent is non-nil the record
// is appended to parent.Children.
func (g *Graph) NewModule(filename string, parent *Module) *Module {
	m := &Module{
		ID:       filename,
		Filename: filename,
		Parent:   parent,
		Exports:  map[string]any{},
		graph:    g,
	}
	if parent != nil {
		parent.Children = append(parent.Children, m)
	}
	return m
}

// NewBuiltin constructs a loaded, parentless record for a host-provided
// implementation.
func (g *Graph) NewBuiltin(name string, exports any) *Module {
	m := g.NewModule(name, nil)
	m.Exports = exports
	m.loaded = true
	return m
}

// Main returns the current shared entry reference, or nil before RunMain.
func (g *Graph) Main() *Module { return g.main }

// RunMain resolves path from the root context, publishes the new record as
// the entry reference and loads it. Records loaded before this call keep the
// entry reference they already observed.
func (g *Graph) RunMain(path string) (*Module, error) {
	resolved, err := g.resolve(nil, path)
	if err != nil {
		return nil, err
	}

	m := g.NewModule(resolved, nil)
	g.main = m
	g.logger.Debug("running entry module", "id", m.ID)

	if err := g.loadWithMain(m, m); err != nil {
		return m, err
	}
	return m, nil
}

func (g *Graph) loadWithMain(m, main *Module) error {
	m.Main = main
	return m.Load()
}
