// SPDX-License-Identifier: MPL-2.0

package modgraph

type (
	// Registry is the read side of the cache that owns module records.
	// Load delegates hand it to every record they load.
	Registry interface {
		Get(id string) (*Module, bool)
		IDs() []string
	}

	// ExtensionTable is the read side of a loader's extension table.
	ExtensionTable interface {
		Names() []string
	}

	// Module is one node of the graph, identified by its canonical path.
	Module struct {
		// ID is the canonical path (or builtin name) and the cache key.
		ID string
		// Filename is an alias of ID kept for loaders that read it.
		Filename string
		// Parent is the module whose require constructed this one; nil for roots.
		Parent *Module
		// Children are the modules constructed while this module's body ran,
		// in construction order. The slice only grows.
		Children []*Module
		// Requires lists the ids of every module this module required,
		// including cache hits, in call order.
		Requires []string
		// Exports is the export container. It starts as an empty map and is
		// populated, or replaced, by the load delegate.
		Exports any
		// Main is the entry module this record observed when it was loaded.
		Main *Module

		// Cache and Extensions are handed over by the load delegate before
		// the body executes.
		Cache      Registry
		Extensions ExtensionTable

		loaded bool
		graph  *Graph
	}
)

// Loaded reports whether the load delegate has completed successfully.
func (m *Module) Loaded() bool { return m.loaded }

// Graph returns the graph that constructed m.
func (m *Module) Graph() *Graph { return m.graph }

// IsMain reports whether m is the entry module it observed.
func (m *Module) IsMain() bool { return m.Main == m }

// Load runs the load delegate for m. Loading a record twice panics with
// *ReentrantLoadViolation. The loaded flag is set only when the delegate
// returns without error.
func (m *Module) Load() error {
	if m.loaded {
		panic(&ReentrantLoadViolation{ID: m.ID})
	}

	if err := m.graph.load(m, m.Filename); err != nil {
		m.graph.logger.Debug("module load failed", "id", m.ID, "error", err)
		return &LoadError{ID: m.ID, Err: err}
	}

	m.loaded = true
	m.graph.logger.Debug("module loaded", "id", m.ID, "children", len(m.Children))
	return nil
}

// Resolve maps specifier to a canonical path using m as the referrer,
// without loading anything.
func (m *Module) Resolve(specifier string) (string, error) {
	return m.graph.resolve(m, specifier)
}

// Require resolves specifier relative to m and returns the target's export
// bindings, loading the target first unless it is already cached.
func (m *Module) Require(specifier string) (any, error) {
	g := m.graph

	resolved, err := g.resolve(m, specifier)
	if err != nil {
		return nil, err
	}

	cached, err := g.cached(m, resolved)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		m.Requires = append(m.Requires, cached.ID)
		return cached.Exports, nil
	}

	child := g.NewModule(resolved, m)
	m.Requires = append(m.Requires, child.ID)
	if err := g.loadWithMain(child, g.main); err != nil {
		return nil, err
	}
	return child.Exports, nil
}
