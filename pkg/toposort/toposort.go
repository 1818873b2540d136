// Package toposort orders nodes so that every node comes after the nodes it
// depends on.
package toposort

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrCircularDependency is returned when the input contains a dependency cycle.
	ErrCircularDependency = errors.New("circular dependency detected")

	// ErrMissingDependency is returned when a required dependency is not found.
	ErrMissingDependency = errors.New("dependency not found")
)

// Node is anything with an identity and a list of identities it depends on.
type Node interface {
	NodeID() string
	NodeDeps() []string
}

// CycleError lists the nodes that could not be ordered because they are on,
// or downstream of, a dependency cycle.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: cycle among nodes: %s", ErrCircularDependency, strings.Join(e.Nodes, ", "))
}

func (e *CycleError) Unwrap() error {
	return ErrCircularDependency
}

// Options control how Sort treats incomplete graphs.
type Options struct {
	// IgnoreMissing skips dependencies on IDs that are not among the nodes
	// instead of failing with ErrMissingDependency.
	IgnoreMissing bool

	// IgnoreSelf drops dependencies of a node on itself instead of reporting
	// them as a cycle.
	IgnoreSelf bool
}

// Sort performs a topological sort of nodes using Kahn's algorithm. Among
// nodes that are ready at the same time the lexicographically smallest ID
// goes first, so the output is deterministic.
//
// A cycle yields a *CycleError, which matches ErrCircularDependency with
// errors.Is.
func Sort[T Node](nodes []T, opts Options) ([]T, error) {
	n := len(nodes)
	if n == 0 {
		return nil, nil
	}

	byID := make(map[string]T, n)
	for _, it := range nodes {
		byID[it.NodeID()] = it
	}

	// dependency -> nodes that depend on it
	adj := make(map[string][]string, n)
	indeg := make(map[string]int, n)
	for id := range byID {
		indeg[id] = 0
	}

	for _, it := range nodes {
		id := it.NodeID()
		for _, dep := range it.NodeDeps() {
			if dep == id {
				if opts.IgnoreSelf {
					continue
				}
				return nil, &CycleError{Nodes: []string{id}}
			}
			if _, ok := byID[dep]; !ok {
				if opts.IgnoreMissing {
					continue
				}
				return nil, fmt.Errorf("dependency %q of %q: %w", dep, id, ErrMissingDependency)
			}
			adj[dep] = append(adj[dep], id)
			indeg[id]++
		}
	}

	ready := make([]string, 0, n)
	for id, d := range indeg {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)

	result := make([]T, 0, n)
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		result = append(result, byID[id])
		for _, next := range adj[id] {
			indeg[next]--
			if indeg[next] == 0 {
				ready = append(ready, next)
			}
		}
		slices.Sort(ready)
	}

	if len(result) != len(byID) {
		remaining := make([]string, 0, len(byID)-len(result))
		for id, d := range indeg {
			if d > 0 {
				remaining = append(remaining, id)
			}
		}
		slices.Sort(remaining)
		return nil, &CycleError{Nodes: remaining}
	}

	return result, nil
}
