package manifest

import (
	"log/slog"
	"slices"

	"github.com/samber/lo"
	"github.com/yaklabco/ripple/internal/log"
)

// Set is a set of target names.
type Set map[string]struct{}

// NewSet returns a set holding names.
func NewSet(names ...string) Set {
	return Set(lo.Keyify(names))
}

// Has reports whether name is in the set.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Add inserts name and reports whether it was new.
func (s Set) Add(name string) bool {
	if s.Has(name) {
		return false
	}
	s[name] = struct{}{}
	return true
}

// Sorted returns the members in name order.
func (s Set) Sorted() []string {
	out := lo.Keys(s)
	slices.Sort(out)
	return out
}

type resolveOptions struct {
	force bool
}

// Option configures a single resolution.
type Option func(*resolveOptions)

// WithForce activates every target regardless of the changed files.
func WithForce() Option {
	return func(o *resolveOptions) {
		o.force = true
	}
}

// Resolution is the outcome of one resolution run.
type Resolution struct {
	// Seed holds the targets matched directly by a changed file.
	Seed []string

	// Rounds holds, per expansion round, the targets that round activated.
	// Every round adds at least one target.
	Rounds [][]string

	// Forced is set when the run activated every target unconditionally.
	Forced bool

	names     []string
	activated Set
}

// Activated returns the activated target names, sorted.
func (r *Resolution) Activated() []string {
	return r.activated.Sorted()
}

// IsActivated reports whether name ended up activated.
func (r *Resolution) IsActivated(name string) bool {
	return r.activated.Has(name)
}

// ActivatedTargets reports, for every target in the manifest, whether it was
// activated.
func (r *Resolution) ActivatedTargets() map[string]bool {
	out := make(map[string]bool, len(r.names))
	for _, name := range r.names {
		out[name] = r.activated.Has(name)
	}
	return out
}

// Resolve computes the activated targets for a list of changed files. It is
// a pure function of the manifest and the input: the order of changedFiles
// does not matter and repeated calls give the same result.
//
// Targets matched by a changed file are activated first. Activation then
// spreads along activated_by edges one round at a time, only looking at the
// dependents of targets activated in the previous round, until a round adds
// nothing. Cycles stop spreading once all their members are active, so there
// are never more rounds than targets.
func Resolve(m *Manifest, changedFiles []string, opts ...Option) *Resolution {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}

	res := &Resolution{
		names:     m.names,
		activated: make(Set, len(m.names)),
	}

	if o.force {
		for _, name := range m.names {
			res.activated.Add(name)
		}
		res.Seed = m.Names()
		res.Forced = true
		slog.Debug("forced activation of all targets", slog.Int(log.Count, len(m.names)))
		return res
	}

	res.Seed = m.index.MatchAll(changedFiles)
	for _, name := range res.Seed {
		res.activated.Add(name)
	}
	slog.Debug("seeded activation from changed files",
		slog.Int(log.Files, len(changedFiles)),
		slog.Any(log.Targets, res.Seed))

	frontier := res.Seed
	for len(frontier) > 0 {
		var next []string
		for _, name := range frontier {
			for _, dep := range m.graph.Dependents(name) {
				if res.activated.Add(dep) {
					next = append(next, dep)
				}
			}
		}
		if len(next) == 0 {
			break
		}

		slices.Sort(next)
		res.Rounds = append(res.Rounds, next)
		slog.Debug("activation round",
			slog.Int(log.Round, len(res.Rounds)),
			slog.Any(log.Targets, next))

		frontier = next
	}

	return res
}

// Resolver keeps the result of the latest resolution of a manifest so it can
// be queried afterwards.
type Resolver struct {
	manifest *Manifest
	last     *Resolution
}

// NewResolver returns a Resolver for m.
func NewResolver(m *Manifest) *Resolver {
	return &Resolver{manifest: m}
}

// Resolve runs a resolution and records its result, replacing any earlier
// one.
func (r *Resolver) Resolve(changedFiles []string, opts ...Option) *Resolution {
	r.last = Resolve(r.manifest, changedFiles, opts...)
	return r.last
}

// Last returns the most recent resolution, or nil before the first call.
func (r *Resolver) Last() *Resolution {
	return r.last
}

// ActivatedTargets reports the activation flag of every target. Before any
// resolution every target is inactive.
func (r *Resolver) ActivatedTargets() map[string]bool {
	if r.last == nil {
		return Resolve(r.manifest, nil).ActivatedTargets()
	}
	return r.last.ActivatedTargets()
}
