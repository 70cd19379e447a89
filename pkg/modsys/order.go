// SPDX-License-Identifier: MPL-2.0

package modsys

import (
	"github.com/invowk/modsys/internal/dag"
)

// Order returns the cached module ids with every dependency before its
// dependents. Builtins are left out. A require cycle is reported as
// *dag.CycleError; cycles are legal at load time, so callers that only need
// a listing can fall back to Cache().IDs().
func (s *System) Order() ([]string, error) {
	g := dag.New()
	for _, id := range s.cache.IDs() {
		g.AddNode(id)
	}
	for _, id := range s.cache.IDs() {
		m, _ := s.cache.Get(id)
		for _, dep := range m.Requires {
			if s.builtins.Has(dep) {
				continue
			}
			if _, ok := s.cache.Get(dep); !ok {
				continue
			}
			g.AddDependency(id, dep)
		}
	}
	return g.TopologicalSort()
}
