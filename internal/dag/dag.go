// SPDX-License-Identifier: MPL-2.0

// Package dag orders module records by their require edges. An edge from a
// dependency to its dependent means the dependency finishes loading first.
package dag

import (
	"fmt"
	"strings"
)

type (
	// CycleError is returned when the require graph contains a cycle, so no
	// load order exists that puts every dependency first.
	CycleError struct {
		// Cycle lists the module ids left with unresolved dependencies.
		Cycle []string
	}

	// Graph is a directed graph of module ids.
	Graph struct {
		// dependents maps each id to the ids that require it.
		dependents map[string][]string
		// edges deduplicates (dependency, dependent) pairs.
		edges map[[2]string]bool
		// nodes keeps ids in insertion order for deterministic output.
		nodes   []string
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("require cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		dependents: make(map[string][]string),
		edges:      make(map[[2]string]bool),
		nodeSet:    make(map[string]bool),
	}
}

// AddNode adds a module id. Adding an existing id is a no-op.
func (g *Graph) AddNode(id string) {
	if g.nodeSet[id] {
		return
	}
	g.nodeSet[id] = true
	g.nodes = append(g.nodes, id)
}

// AddDependency records that dependent requires dependency. Both ids are
// added implicitly; repeated pairs are recorded once.
func (g *Graph) AddDependency(dependent, dependency string) {
	g.AddNode(dependency)
	g.AddNode(dependent)

	key := [2]string{dependency, dependent}
	if g.edges[key] {
		return
	}
	g.edges[key] = true
	g.dependents[dependency] = append(g.dependents[dependency], dependent)
}

// Len returns the number of ids in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// TopologicalSort returns a dependency-first order using Kahn's algorithm,
// or a *CycleError. Ids at the same depth keep their insertion order.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, id := range g.nodes {
		inDegree[id] = 0
	}
	for _, dependents := range g.dependents {
		for _, d := range dependents {
			inDegree[d]++
		}
	}

	queue := make([]string, 0, len(g.nodes))
	for _, id := range g.nodes {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		result = append(result, id)

		for _, d := range g.dependents[id] {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var cycle []string
		for _, id := range g.nodes {
			if inDegree[id] > 0 {
				cycle = append(cycle, id)
			}
		}
		return nil, &CycleError{Cycle: cycle}
	}

	return result, nil
}
