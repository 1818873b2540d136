package gitops

import (
	"bytes"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runGit runs git in dir with a fixed identity and no user or system config.
func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_CONFIG_GLOBAL="+os.DevNull,
		"GIT_AUTHOR_NAME=Ripple Test",
		"GIT_AUTHOR_EMAIL=ripple@example.com",
		"GIT_COMMITTER_NAME=Ripple Test",
		"GIT_COMMITTER_EMAIL=ripple@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

type fixture struct {
	dir        string
	rootSHA    string
	mainSHA    string
	featureSHA string
}

// newFixture builds a repository with this history:
//
//	main:    root -- main-only
//	feature: root -- (edit a.txt, add dir/c.txt, rename b.txt to moved.txt)
//	lonely:  unrelated orphan commit
func newFixture(t *testing.T) fixture {
	t.Helper()

	dir := t.TempDir()
	dir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	runGit(t, dir, "init", "--quiet")
	runGit(t, dir, "symbolic-ref", "HEAD", "refs/heads/main")

	writeFile(t, dir, "a.txt", "a\n")
	writeFile(t, dir, "b.txt", "b\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "--quiet", "-m", "root")
	rootSHA := runGit(t, dir, "rev-parse", "HEAD")

	runGit(t, dir, "checkout", "--quiet", "-b", "feature")
	writeFile(t, dir, "a.txt", "a changed\n")
	writeFile(t, dir, "dir/c.txt", "c\n")
	runGit(t, dir, "mv", "b.txt", "moved.txt")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "--quiet", "-m", "feature work")
	featureSHA := runGit(t, dir, "rev-parse", "HEAD")

	runGit(t, dir, "checkout", "--quiet", "main")
	writeFile(t, dir, "main-only.txt", "m\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "--quiet", "-m", "main work")
	mainSHA := runGit(t, dir, "rev-parse", "HEAD")

	runGit(t, dir, "checkout", "--quiet", "--orphan", "lonely")
	runGit(t, dir, "rm", "-r", "--quiet", "--cached", ".")
	writeFile(t, dir, "lonely.txt", "l\n")
	runGit(t, dir, "add", "lonely.txt")
	runGit(t, dir, "commit", "--quiet", "-m", "unrelated")
	runGit(t, dir, "clean", "-fdq")

	runGit(t, dir, "tag", "v1.0.0", rootSHA)
	runGit(t, dir, "tag", "api-v1.2.0", featureSHA)

	runGit(t, dir, "checkout", "--quiet", "feature")

	return fixture{dir: dir, rootSHA: rootSHA, mainSHA: mainSHA, featureSHA: featureSHA}
}

func TestShellGitOps_History(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := t.Context()
	g := NewGitOps(fx.dir)

	branch, err := g.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "feature", branch)

	mainSHA, err := g.ResolveRef(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, fx.mainSHA, mainSHA)

	featureSHA, err := g.ResolveRef(ctx, "feature")
	require.NoError(t, err)
	assert.Equal(t, fx.featureSHA, featureSHA)

	bySHA, err := g.ResolveRef(ctx, fx.rootSHA[:10])
	require.NoError(t, err)
	assert.Equal(t, fx.rootSHA, bySHA)

	byTag, err := g.ResolveRef(ctx, "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, fx.rootSHA, byTag)

	mergeBase, err := g.MergeBase(ctx, mainSHA, featureSHA)
	require.NoError(t, err)
	assert.Equal(t, fx.rootSHA, mergeBase)

	files, err := g.ChangedFiles(ctx, mergeBase, featureSHA)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "dir/c.txt", "moved.txt"}, files)

	none, err := g.ChangedFiles(ctx, featureSHA, featureSHA)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestShellGitOps_Errors(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := t.Context()
	g := NewGitOps(fx.dir)

	_, err := g.ResolveRef(ctx, "does-not-exist")
	require.ErrorIs(t, err, ErrRefNotFound)

	_, err = g.ResolveRef(ctx, "  ")
	require.ErrorIs(t, err, ErrRefNotFound)

	lonely, err := g.ResolveRef(ctx, "lonely")
	require.NoError(t, err)

	_, err = g.MergeBase(ctx, fx.mainSHA, lonely)
	require.ErrorIs(t, err, ErrNoMergeBase)

	_, err = g.ChangedFiles(ctx, "nope", fx.featureSHA)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.NotZero(t, cmdErr.ExitCode)

	runGit(t, fx.dir, "checkout", "--quiet", "--detach", fx.rootSHA)
	_, err = g.CurrentBranch(ctx)
	require.ErrorIs(t, err, ErrDetachedHead)
}

func TestShellGitOps_ResolveRemoteTracking(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := t.Context()
	g := NewGitOps(fx.dir)

	runGit(t, fx.dir, "update-ref", "refs/remotes/upstream/release", fx.featureSHA)
	runGit(t, fx.dir, "update-ref", "refs/remotes/origin/shared", fx.mainSHA)
	runGit(t, fx.dir, "update-ref", "refs/remotes/upstream/shared", fx.featureSHA)
	runGit(t, fx.dir, "update-ref", "refs/remotes/upstream/nested/hotfix", fx.rootSHA)

	release, err := g.ResolveRef(ctx, "release")
	require.NoError(t, err)
	assert.Equal(t, fx.featureSHA, release)

	shared, err := g.ResolveRef(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, fx.mainSHA, shared, "origin wins over other remotes")

	qualified, err := g.ResolveRef(ctx, "upstream/shared")
	require.NoError(t, err)
	assert.Equal(t, fx.featureSHA, qualified)

	_, err = g.ResolveRef(ctx, "hotfix")
	require.ErrorIs(t, err, ErrRefNotFound)
}

func TestShellGitOps_ChangedFilesKeepsWhitespace(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := t.Context()
	g := NewGitOps(fx.dir)

	writeFile(t, fx.dir, " lead.txt", "l\n")
	writeFile(t, fx.dir, "tail.txt ", "t\n")
	runGit(t, fx.dir, "add", ".")
	runGit(t, fx.dir, "commit", "--quiet", "-m", "odd names")
	head := runGit(t, fx.dir, "rev-parse", "HEAD")

	files, err := g.ChangedFiles(ctx, fx.featureSHA, head)
	require.NoError(t, err)
	assert.Equal(t, []string{" lead.txt", "tail.txt "}, files)
}

func TestShellGitOps_BranchesAndTags(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	ctx := t.Context()
	g := NewGitOps(fx.dir)

	local, err := g.Branches(ctx, BranchLocal)
	require.NoError(t, err)
	assert.Equal(t, []string{"feature", "lonely", "main"}, local)

	remote, err := g.Branches(ctx, BranchRemote)
	require.NoError(t, err)
	assert.Empty(t, remote)

	all, err := g.Branches(ctx, BranchAll)
	require.NoError(t, err)
	assert.Equal(t, local, all)

	tags, err := g.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"api-v1.2.0", "v1.0.0"}, tags)
}

func TestShellGitOps_ConsoleEcho(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	var buf bytes.Buffer
	g := &ShellGitOps{Dir: fx.dir, Console: log.New(&buf, "", 0)}

	_, err := g.CurrentBranch(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "exec: git symbolic-ref --quiet --short HEAD\n", buf.String())
}

func TestFindRepo(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	root, err := FindRepo(t.Context(), filepath.Join(fx.dir, "dir"))
	require.NoError(t, err)
	assert.Equal(t, fx.dir, root)

	_, err = FindRepo(t.Context(), t.TempDir())
	require.ErrorIs(t, err, ErrNotGitRepo)
}

func TestSplitPaths(t *testing.T) {
	assert.Equal(t, []string{"a", "b/c", "z"}, splitPaths("z\x00a\x00b/c\x00a\x00"))
	assert.Empty(t, splitPaths(""))
}
