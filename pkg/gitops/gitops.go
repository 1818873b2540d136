// Package gitops answers the version-control questions ripple needs: which
// commit a reference points to, where two references diverged, and which
// files differ between two commits. It shells out to the git binary.
package gitops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
	rlog "github.com/yaklabco/ripple/internal/log"
)

var (
	// ErrNotGitRepo is returned when the directory is not inside a Git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrRefNotFound is returned when a reference does not name a commit.
	ErrRefNotFound = errors.New("reference not found")

	// ErrNoMergeBase is returned when two commits share no history.
	ErrNoMergeBase = errors.New("no common ancestor")

	// ErrDetachedHead is returned by CurrentBranch when HEAD is not a branch.
	ErrDetachedHead = errors.New("HEAD is not on a branch")
)

// BranchKind selects which branches Branches lists.
type BranchKind int

// Branch kinds.
const (
	BranchAll BranchKind = iota
	BranchLocal
	BranchRemote
)

// GitOps abstracts git operations for testability.
type GitOps interface {
	// CurrentBranch returns the short name of the checked out branch.
	CurrentBranch(ctx context.Context) (string, error)
	// ResolveRef returns the commit SHA a branch, tag, or commit-ish points to.
	ResolveRef(ctx context.Context, ref string) (string, error)
	// MergeBase returns the best common ancestor of two commits.
	MergeBase(ctx context.Context, base, head string) (string, error)
	// ChangedFiles returns the sorted, deduplicated paths that differ between
	// two commits.
	ChangedFiles(ctx context.Context, oldRev, newRev string) ([]string, error)
	// Branches lists branch names.
	Branches(ctx context.Context, kind BranchKind) ([]string, error)
	// Tags lists tag names.
	Tags(ctx context.Context) ([]string, error)
}

// CommandError describes a failed git invocation.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ShellGitOps implements GitOps by running git.
type ShellGitOps struct {
	// Dir is the working directory for git; empty means the current one.
	Dir string

	// Console, when set, receives every git command line before it runs.
	Console *log.Logger
}

// NewGitOps creates a new ShellGitOps instance.
func NewGitOps(dir string) *ShellGitOps {
	return &ShellGitOps{Dir: dir}
}

var _ GitOps = (*ShellGitOps)(nil)

// CurrentBranch returns the current branch name.
func (g *ShellGitOps) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.gitOutput(ctx, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 {
			return "", ErrDetachedHead
		}
		return "", err
	}
	return out, nil
}

// refCandidates lists the names tried for ref, local branches first, then
// remote-tracking branches of origin, then whatever git makes of the name
// itself.
func refCandidates(ref string) []string {
	return []string{
		"refs/heads/" + ref,
		"refs/remotes/" + ref,
		"refs/remotes/origin/" + ref,
		ref,
	}
}

// ResolveRef returns the commit SHA for ref. A branch that only exists on a
// remote other than origin is found as refs/remotes/<remote>/<ref>, trying
// remotes in name order.
func (g *ShellGitOps) ResolveRef(ctx context.Context, ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("%w: empty reference", ErrRefNotFound)
	}

	for _, candidate := range refCandidates(ref) {
		sha, err := g.verify(ctx, candidate)
		if err != nil {
			return "", err
		}
		if sha != "" {
			slog.Debug("resolved reference",
				slog.String(rlog.Ref, ref),
				slog.String(rlog.SHA, sha))
			return sha, nil
		}
	}

	remoteRefs, err := g.remoteTrackingRefs(ctx, ref)
	if err != nil {
		return "", err
	}
	for _, candidate := range remoteRefs {
		sha, err := g.verify(ctx, candidate)
		if err != nil {
			return "", err
		}
		if sha != "" {
			slog.Debug("resolved reference on remote",
				slog.String(rlog.Ref, candidate),
				slog.String(rlog.SHA, sha))
			return sha, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrRefNotFound, ref)
}

// verify returns the commit candidate names, or "" when it names none.
func (g *ShellGitOps) verify(ctx context.Context, candidate string) (string, error) {
	out, err := g.gitOutput(ctx, "rev-parse", "--verify", "--quiet", candidate+"^{commit}")
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	return "", nil
}

// remoteTrackingRefs lists refs/remotes/<remote>/<ref> for every remote
// except origin, which refCandidates already covers.
func (g *ShellGitOps) remoteTrackingRefs(ctx context.Context, ref string) ([]string, error) {
	out, err := g.gitOutput(ctx, "for-each-ref", "--format=%(refname)", "refs/remotes")
	if err != nil {
		return nil, err
	}

	suffix := "/" + ref
	refs := lo.Filter(strings.Split(out, "\n"), func(name string, _ int) bool {
		remote, ok := strings.CutPrefix(name, "refs/remotes/")
		if !ok {
			return false
		}
		remote, ok = strings.CutSuffix(remote, suffix)
		return ok && remote != "origin" && remote != "" && !strings.Contains(remote, "/")
	})
	slices.Sort(refs)
	return refs, nil
}

// MergeBase finds the merge base between two commits.
func (g *ShellGitOps) MergeBase(ctx context.Context, base, head string) (string, error) {
	out, err := g.gitOutput(ctx, "merge-base", base, head)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 && cmdErr.Stderr == "" {
			return "", fmt.Errorf("%w: %s and %s", ErrNoMergeBase, base, head)
		}
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("%w: %s and %s", ErrNoMergeBase, base, head)
	}
	return out, nil
}

// ChangedFiles returns files changed between oldRev and newRev. Rename
// detection is off, so a renamed file reports both its old and new path.
func (g *ShellGitOps) ChangedFiles(ctx context.Context, oldRev, newRev string) ([]string, error) {
	out, err := gitRaw(ctx, g.Dir, g.Console, "diff", "--name-only", "--no-renames", "-z", oldRev, newRev)
	if err != nil {
		return nil, err
	}
	return splitPaths(out), nil
}

// splitPaths turns NUL separated git output into a sorted set of paths.
func splitPaths(out string) []string {
	files := lo.Uniq(lo.Compact(strings.Split(out, "\x00")))
	slices.Sort(files)
	return files
}

// Branches lists branch names of the given kind.
func (g *ShellGitOps) Branches(ctx context.Context, kind BranchKind) ([]string, error) {
	var refs []string
	switch kind {
	case BranchLocal:
		refs = []string{"refs/heads"}
	case BranchRemote:
		refs = []string{"refs/remotes"}
	default:
		refs = []string{"refs/heads", "refs/remotes"}
	}

	return g.refNames(ctx, refs...)
}

// Tags lists tag names.
func (g *ShellGitOps) Tags(ctx context.Context) ([]string, error) {
	return g.refNames(ctx, "refs/tags")
}

func (g *ShellGitOps) refNames(ctx context.Context, patterns ...string) ([]string, error) {
	args := append([]string{"for-each-ref", "--format=%(refname:short)"}, patterns...)
	out, err := g.gitOutput(ctx, args...)
	if err != nil {
		return nil, err
	}

	names := lo.Filter(lo.Compact(strings.Split(out, "\n")), func(name string, _ int) bool {
		// origin/HEAD is a symbolic ref, not a branch.
		return !strings.HasSuffix(name, "/HEAD")
	})
	slices.Sort(names)
	return names, nil
}

// gitOutput runs a git command and returns its trimmed stdout.
func (g *ShellGitOps) gitOutput(ctx context.Context, args ...string) (string, error) {
	return gitOutput(ctx, g.Dir, g.Console, args...)
}

func gitOutput(ctx context.Context, dir string, console *log.Logger, args ...string) (string, error) {
	out, err := gitRaw(ctx, dir, console, args...)
	return strings.TrimSpace(out), err
}

// gitRaw runs a git command and returns its stdout untouched, for output
// such as NUL separated paths where whitespace is significant.
func gitRaw(ctx context.Context, dir string, console *log.Logger, args ...string) (string, error) {
	if console != nil {
		console.Println("exec: git", strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		cmdErr := &CommandError{
			Args:     args,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return "", cmdErr
	}

	return string(out), nil
}

// FindRepo returns the root of the Git repository containing dir. If dir is
// empty, the current working directory is used.
func FindRepo(ctx context.Context, dir string) (string, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}

	rootDir, err := gitOutput(ctx, absDir, nil, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotGitRepo, absDir)
	}

	// Resolve symlinks to get canonical paths (important on macOS where
	// /var is a symlink to /private/var)
	rootDir, err = filepath.EvalSymlinks(rootDir)
	if err != nil {
		return "", fmt.Errorf("resolving root dir symlinks: %w", err)
	}
	rootDir = filepath.Clean(rootDir)

	slog.Debug("found repository", slog.String(rlog.Dir, rootDir))
	return rootDir, nil
}
