// Package ripple ties the manifest, git, and the resolver together: it works
// out which targets a branch impacts relative to its base.
package ripple

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	rlog "github.com/yaklabco/ripple/internal/log"
	"github.com/yaklabco/ripple/pkg/env"
	"github.com/yaklabco/ripple/pkg/gitops"
	"github.com/yaklabco/ripple/pkg/manifest"
	"github.com/yaklabco/ripple/pkg/report"
)

// ErrNoHead is returned when no head was given and none can be inferred.
var ErrNoHead = errors.New("cannot determine head branch")

// DeriveParams configures a Derive run.
type DeriveParams struct {
	// ManifestPath is the manifest file. Relative paths are taken from Dir.
	ManifestPath string

	// Manifest, when set, is used instead of loading ManifestPath.
	Manifest *manifest.Manifest

	// Dir is the repository directory.
	Dir string

	// Head defaults to the checked out branch.
	Head string

	// Base defaults to the manifest's base branch.
	Base string

	// Force activates every target when positive.
	Force int

	// ForceOnBase adds a force level when Head is the manifest's base.
	ForceOnBase bool

	// Git answers the version control questions. Defaults to git in Dir.
	Git gitops.GitOps
}

// Derive loads the manifest, diffs head against its merge base with base,
// and resolves which targets changed.
func Derive(ctx context.Context, params DeriveParams) (*report.Report, error) {
	start := time.Now()

	m := params.Manifest
	if m == nil {
		var err error
		m, err = manifest.LoadFile(manifestPath(params.Dir, params.ManifestPath))
		if err != nil {
			return nil, err
		}
	}

	git := params.Git
	if git == nil {
		git = gitops.NewGitOps(params.Dir)
	}

	head, err := headBranch(ctx, git, params.Head)
	if err != nil {
		return nil, err
	}

	base := params.Base
	if base == "" {
		base = m.Base()
	}

	force := params.Force
	if params.ForceOnBase && head == m.Base() {
		slog.Info("head is the base branch, forcing all targets", slog.String(rlog.Head, head))
		force++
	}

	headSHA, err := git.ResolveRef(ctx, head)
	if err != nil {
		return nil, fmt.Errorf("resolving head: %w", err)
	}
	baseSHA, err := git.ResolveRef(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("resolving base: %w", err)
	}
	mergeBaseSHA, err := git.MergeBase(ctx, baseSHA, headSHA)
	if err != nil {
		return nil, fmt.Errorf("finding merge base of %s and %s: %w", base, head, err)
	}

	files, err := git.ChangedFiles(ctx, mergeBaseSHA, headSHA)
	if err != nil {
		return nil, fmt.Errorf("listing changed files: %w", err)
	}

	slog.Info("comparing",
		slog.String(rlog.Head, head),
		slog.String(rlog.Base, base),
		slog.String(rlog.SHA, headSHA),
		slog.Int(rlog.Files, len(files)))

	var opts []manifest.Option
	if force > 0 {
		opts = append(opts, manifest.WithForce())
	}
	res := manifest.Resolve(m, files, opts...)

	r := &report.Report{
		Head:         head,
		Base:         base,
		HeadSHA:      headSHA,
		MergeBaseSHA: mergeBaseSHA,
		Forced:       res.Forced,
		Files:        files,
		Targets:      report.Outcomes(res, headSHA, mergeBaseSHA),
	}

	slog.Debug("derive finished",
		slog.Int(rlog.Targets, len(r.Changed())),
		slog.Duration(rlog.Duration, time.Since(start)))

	return r, nil
}

func manifestPath(dir, path string) string {
	if path == "" {
		path = manifest.DefaultFileName
	}
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

// headBranch returns head, the checked out branch, or on a detached
// checkout the branch the CI run was started for.
func headBranch(ctx context.Context, git gitops.GitOps, head string) (string, error) {
	if head != "" {
		return head, nil
	}

	branch, err := git.CurrentBranch(ctx)
	if err == nil {
		return branch, nil
	}
	if !errors.Is(err, gitops.ErrDetachedHead) {
		return "", fmt.Errorf("%w: %w", ErrNoHead, err)
	}

	if branch := env.HeadBranch(); branch != "" {
		slog.Info("HEAD is detached, using the CI branch", slog.String(rlog.Head, branch))
		return branch, nil
	}

	return "", fmt.Errorf("%w: HEAD is detached, pass --head", ErrNoHead)
}
