package manifest

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/yaklabco/ripple/pkg/toposort"
)

// FindingKind classifies a validation finding.
type FindingKind string

// Finding kinds reported by Validate.
const (
	FindingDanglingActivator FindingKind = "dangling-activator"
	FindingSelfActivation    FindingKind = "self-activation"
	FindingCycle             FindingKind = "activation-cycle"
)

// Finding is a non-fatal issue in a manifest. None of them change how the
// manifest resolves.
type Finding struct {
	Kind    FindingKind
	Target  string
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Kind, f.Target, f.Message)
}

// Findings is the result of Validate.
type Findings []Finding

// ByKind returns the findings of one kind.
func (fs Findings) ByKind(kind FindingKind) Findings {
	return lo.Filter(fs, func(f Finding, _ int) bool { return f.Kind == kind })
}

// Err combines the findings into one error, or returns nil when there are
// none.
func (fs Findings) Err() error {
	if len(fs) == 0 {
		return nil
	}
	errs := lo.Map(fs, func(f Finding, _ int) error { return errors.New(f.String()) })
	return errors.Join(errs...)
}

type orderNode struct {
	name string
	deps []string
}

func (n orderNode) NodeID() string     { return n.name }
func (n orderNode) NodeDeps() []string { return n.deps }

func orderNodes(m *Manifest) []orderNode {
	return lo.Map(m.Targets(), func(t Target, _ int) orderNode {
		return orderNode{name: t.Name, deps: t.ActivatedBy}
	})
}

// Validate checks a manifest for activated_by entries that name unknown
// targets, targets that list themselves, and activation cycles.
func Validate(m *Manifest) Findings {
	var out Findings

	for _, e := range m.graph.Dangling() {
		out = append(out, Finding{
			Kind:    FindingDanglingActivator,
			Target:  e.Dependent,
			Message: fmt.Sprintf("activated_by names unknown target %q", e.Activator),
		})
	}

	for _, t := range m.Targets() {
		if slices.Contains(t.ActivatedBy, t.Name) {
			out = append(out, Finding{
				Kind:    FindingSelfActivation,
				Target:  t.Name,
				Message: "activated_by lists the target itself",
			})
		}
	}

	_, err := toposort.Sort(orderNodes(m), toposort.Options{IgnoreMissing: true, IgnoreSelf: true})
	var cycleErr *toposort.CycleError
	if errors.As(err, &cycleErr) {
		for _, name := range cycleErr.Nodes {
			out = append(out, Finding{
				Kind:    FindingCycle,
				Target:  name,
				Message: "on or downstream of an activated_by cycle",
			})
		}
	}

	return out
}

// Order returns target names with every activator before the targets it
// activates. Cyclic manifests have no such order; they fall back to name
// order.
func Order(m *Manifest) []string {
	sorted, err := toposort.Sort(orderNodes(m), toposort.Options{IgnoreMissing: true, IgnoreSelf: true})
	if err != nil {
		return m.Names()
	}
	return lo.Map(sorted, func(n orderNode, _ int) string { return n.name })
}
