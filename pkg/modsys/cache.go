// SPDX-License-Identifier: MPL-2.0

package modsys

import (
	"slices"

	"github.com/invowk/modsys/pkg/modgraph"

	"golang.org/x/exp/maps"
)

// Cache maps canonical paths to module records. It is the owning index of
// every loaded record; parent and child links are plain pointers.
type Cache struct {
	entries map[string]*modgraph.Module
}

func newCache() *Cache {
	return &Cache{entries: map[string]*modgraph.Module{}}
}

// Get returns the record registered under id.
func (c *Cache) Get(id string) (*modgraph.Module, bool) {
	m, ok := c.entries[id]
	return m, ok
}

// Set registers m under id, replacing any previous record.
func (c *Cache) Set(id string, m *modgraph.Module) {
	c.entries[id] = m
}

// Delete removes id. The next require of the same path constructs a fresh record.
func (c *Cache) Delete(id string) {
	delete(c.entries, id)
}

// Len returns the number of cached records.
func (c *Cache) Len() int { return len(c.entries) }

// IDs returns the cached ids, sorted.
func (c *Cache) IDs() []string {
	keys := maps.Keys(c.entries)
	slices.Sort(keys)
	return keys
}
