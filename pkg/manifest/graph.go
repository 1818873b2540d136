package manifest

import (
	"slices"

	"github.com/samber/lo"
)

// Edge is one activated_by declaration: when Activator activates, so does
// Dependent.
type Edge struct {
	Activator string
	Dependent string
}

// ActivationGraph holds the activated_by relation of a manifest in both
// directions.
type ActivationGraph struct {
	dependents map[string][]string
	activators map[string][]string
	known      map[string]struct{}
	names      []string
}

// NewActivationGraph builds the graph from every target's ActivatedBy set.
// Activator names that are not targets are kept; they never activate.
func NewActivationGraph(targets []Target) *ActivationGraph {
	g := &ActivationGraph{
		dependents: make(map[string][]string),
		activators: make(map[string][]string, len(targets)),
		known:      make(map[string]struct{}, len(targets)),
		names:      make([]string, 0, len(targets)),
	}

	for _, t := range targets {
		g.known[t.Name] = struct{}{}
		g.names = append(g.names, t.Name)
		g.activators[t.Name] = slices.Clone(t.ActivatedBy)
		for _, a := range t.ActivatedBy {
			g.dependents[a] = append(g.dependents[a], t.Name)
		}
	}

	for a := range g.dependents {
		slices.Sort(g.dependents[a])
	}
	slices.Sort(g.names)

	return g
}

// Dependents returns the targets that name activator in their activated_by.
func (g *ActivationGraph) Dependents(activator string) []string {
	return slices.Clone(g.dependents[activator])
}

// Activators returns the activated_by set of target.
func (g *ActivationGraph) Activators(target string) []string {
	return slices.Clone(g.activators[target])
}

// Ready returns the targets not in activated that have at least one activator
// in activated, sorted. This is one expansion step of resolution.
func (g *ActivationGraph) Ready(activated Set) []string {
	return lo.Filter(g.names, func(name string, _ int) bool {
		if activated.Has(name) {
			return false
		}
		return lo.SomeBy(g.activators[name], activated.Has)
	})
}

// Edges returns every declared edge, ordered by dependent then activator.
func (g *ActivationGraph) Edges() []Edge {
	var out []Edge
	for _, name := range g.names {
		for _, a := range g.activators[name] {
			out = append(out, Edge{Activator: a, Dependent: name})
		}
	}
	return out
}

// Dangling returns the edges whose activator is not a target in the manifest.
func (g *ActivationGraph) Dangling() []Edge {
	return lo.Filter(g.Edges(), func(e Edge, _ int) bool {
		_, ok := g.known[e.Activator]
		return !ok
	})
}
