// Package report turns a resolution into the per-target outcome consumed by
// CI, and writes it in the formats ripple supports.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/samber/lo"
	"github.com/yaklabco/ripple/pkg/manifest"
)

// Outcome is the result for one target. Reference is the commit to build or
// deploy the target from: the head commit when the target changed, the merge
// base otherwise.
type Outcome struct {
	Changed   bool   `json:"changed"`
	Reference string `json:"reference"`
}

// Report is the result of one derive run.
type Report struct {
	Head         string             `json:"head"`
	Base         string             `json:"base"`
	HeadSHA      string             `json:"head_sha"`
	MergeBaseSHA string             `json:"merge_base_sha"`
	Forced       bool               `json:"forced"`
	Files        []string           `json:"files"`
	Targets      map[string]Outcome `json:"targets"`
}

// Outcomes maps every target in the resolution to its outcome.
func Outcomes(res *manifest.Resolution, headSHA, mergeBaseSHA string) map[string]Outcome {
	return lo.MapValues(res.ActivatedTargets(), func(changed bool, _ string) Outcome {
		ref := mergeBaseSHA
		if changed {
			ref = headSHA
		}
		return Outcome{Changed: changed, Reference: ref}
	})
}

// Changed returns the names of changed targets, sorted.
func (r *Report) Changed() []string {
	return r.names(true)
}

// Unchanged returns the names of unchanged targets, sorted.
func (r *Report) Unchanged() []string {
	return r.names(false)
}

func (r *Report) names(changed bool) []string {
	out := lo.Keys(lo.PickBy(r.Targets, func(_ string, o Outcome) bool {
		return o.Changed == changed
	}))
	slices.Sort(out)
	return out
}

// WriteJSON writes the target outcome map as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Targets); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// WriteNames writes the changed target names, one per line.
func WriteNames(w io.Writer, r *Report) error {
	for _, name := range r.Changed() {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return fmt.Errorf("writing target names: %w", err)
		}
	}
	return nil
}
