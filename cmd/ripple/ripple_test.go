package ripple

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaklabco/ripple/config"
	"github.com/yaklabco/ripple/pkg/env"
	"github.com/yaklabco/ripple/pkg/gitops"
	"github.com/yaklabco/ripple/pkg/report"
)

const testManifest = `
base: main
targets:
  api:
    path: services/api/**
    activated_by: [lib-auth]
  web:
    path: services/web/**
    globs: ["assets/**"]
  lib-auth:
    path: libs/auth/**
    activated_by: [lib-core]
  lib-core:
    path: libs/core/**
  worker:
    path: services/worker/**
    activated_by: [billing]
`

type fakeGit struct {
	files    []string
	branches map[gitops.BranchKind][]string
	tags     []string
}

func (f *fakeGit) CurrentBranch(context.Context) (string, error) { return "feature", nil }

func (f *fakeGit) ResolveRef(_ context.Context, ref string) (string, error) {
	switch ref {
	case "main":
		return "mainsha", nil
	case "feature":
		return "featuresha", nil
	}
	return "", gitops.ErrRefNotFound
}

func (f *fakeGit) MergeBase(context.Context, string, string) (string, error) {
	return "mergesha", nil
}

func (f *fakeGit) ChangedFiles(context.Context, string, string) ([]string, error) {
	return f.files, nil
}

func (f *fakeGit) Branches(_ context.Context, kind gitops.BranchKind) ([]string, error) {
	return f.branches[kind], nil
}

func (f *fakeGit) Tags(context.Context) ([]string, error) { return f.tags, nil }

// setup writes the manifest into a fresh repository directory and clears
// every environment variable that would leak into config loading.
func setup(t *testing.T) string {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{config.KeyManifest, config.KeyFormat, config.KeyVerbose, config.KeyDebug,
		config.KeyEnableColor, config.KeyForceOnBase, config.KeyActionsOutput, config.KeyStepSummary} {
		t.Setenv(config.EnvName(key), "")
	}
	for _, v := range []string{env.GitHubActions, env.GitHubHeadRef, env.GitHubRefName,
		report.EnvGitHubOutput, report.EnvGitHubStepSummary} {
		t.Setenv(v, "")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".manifest.yaml"), []byte(testManifest), 0o600))
	return dir
}

func run(t *testing.T, git gitops.GitOps, stdin string, args ...string) (string, error) {
	t.Helper()

	ctx := t.Context()
	rootCmd := NewRootCmd(ctx, withGitOps(git))

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), err
}

func TestDerive_JSON(t *testing.T) {
	dir := setup(t)
	git := &fakeGit{files: []string{"libs/core/db.go", "README.md"}}

	out, err := run(t, git, "", "derive", "-C", dir)
	require.NoError(t, err)

	var got map[string]report.Outcome
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]report.Outcome{
		"api":      {Changed: true, Reference: "featuresha"},
		"lib-auth": {Changed: true, Reference: "featuresha"},
		"lib-core": {Changed: true, Reference: "featuresha"},
		"web":      {Changed: false, Reference: "mergesha"},
		"worker":   {Changed: false, Reference: "mergesha"},
	}, got)
}

func TestDerive_Formats(t *testing.T) {
	dir := setup(t)
	git := &fakeGit{files: []string{"assets/logo.svg"}}

	out, err := run(t, git, "", "derive", "-C", dir, "--format", "names")
	require.NoError(t, err)
	assert.Equal(t, "web\n", out)

	out, err = run(t, git, "", "derive", "-C", dir, "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Changed (1)")
	assert.Contains(t, out, "Unchanged (4)")

	out, err = run(t, git, "", "derive", "-C", dir, "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 5 targets changed")

	_, err = run(t, git, "", "derive", "-C", dir, "--format", "xml")
	require.ErrorContains(t, err, "invalid format")
}

func TestDerive_Force(t *testing.T) {
	dir := setup(t)

	out, err := run(t, &fakeGit{}, "", "derive", "-C", dir, "-f", "--format", "names")
	require.NoError(t, err)
	assert.Equal(t, "api\nlib-auth\nlib-core\nweb\nworker\n", out)
}

func TestDerive_ProjectConfig(t *testing.T) {
	dir := setup(t)
	require.NoError(t, os.Rename(filepath.Join(dir, ".manifest.yaml"), filepath.Join(dir, "targets.yaml")))
	require.NoError(t, os.WriteFile(config.ProjectConfigPath(dir),
		[]byte("manifest: targets.yaml\nformat: names\n"), 0o600))

	out, err := run(t, &fakeGit{files: []string{"services/web/app.ts"}}, "", "derive", "-C", dir)
	require.NoError(t, err)
	assert.Equal(t, "web\n", out)
}

func TestDerive_ActionsOutput(t *testing.T) {
	dir := setup(t)
	outputFile := filepath.Join(t.TempDir(), "output")
	summaryFile := filepath.Join(t.TempDir(), "summary")
	t.Setenv(env.GitHubActions, "true")
	t.Setenv(report.EnvGitHubOutput, outputFile)
	t.Setenv(report.EnvGitHubStepSummary, summaryFile)

	_, err := run(t, &fakeGit{files: []string{"services/api/main.go"}}, "",
		"derive", "-C", dir, "--actions-output", "--step-summary")
	require.NoError(t, err)

	output, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Contains(t, string(output), "changed_targets<<ghadelimiter_")
	assert.Contains(t, string(output), "\n[\"api\"]\n")

	summary, err := os.ReadFile(summaryFile)
	require.NoError(t, err)
	assert.Contains(t, string(summary), "## ripple: 1 of 5 targets changed")
}

func TestDerive_ActionsOutputWithoutFile(t *testing.T) {
	dir := setup(t)

	_, err := run(t, &fakeGit{}, "", "derive", "-C", dir, "--actions-output")
	require.ErrorIs(t, err, report.ErrNoActionsFile)
}

func TestDerive_UnknownHead(t *testing.T) {
	dir := setup(t)

	_, err := run(t, &fakeGit{}, "", "derive", "-C", dir, "--head", "nope")
	require.ErrorIs(t, err, gitops.ErrRefNotFound)
}

func TestTargets(t *testing.T) {
	dir := setup(t)

	out, err := run(t, &fakeGit{}, "", "targets", "-C", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "5 targets")
	assert.Less(t, strings.Index(out, "lib-core\n"), strings.Index(out, "lib-auth\n"))
	assert.Less(t, strings.Index(out, "lib-auth\n"), strings.Index(out, "api\n"))
	assert.Contains(t, out, "  patterns:     services/web/**, assets/**")
	assert.Contains(t, out, "  activated by: billing")
}

func TestValidate(t *testing.T) {
	dir := setup(t)

	out, err := run(t, &fakeGit{}, "", "validate", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "dangling-activator worker:")

	_, err = run(t, &fakeGit{}, "", "validate", "-C", dir, "--strict")
	require.ErrorIs(t, err, ErrFindings)
}

func TestValidate_Clean(t *testing.T) {
	dir := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".manifest.yaml"),
		[]byte("base: main\ntargets:\n  a:\n    path: a/**\n"), 0o600))

	out, err := run(t, &fakeGit{}, "", "validate", "-C", dir, "--strict")
	require.NoError(t, err)
	assert.Contains(t, out, "1 targets, no findings")
}

func TestMatch(t *testing.T) {
	dir := setup(t)

	out, err := run(t, &fakeGit{}, "", "match", "-C", dir, "assets/x.png", "docs/readme.md")
	require.NoError(t, err)
	assert.Contains(t, out, "assets/x.png: web\n  web assets/**\n")
	assert.Contains(t, out, "docs/readme.md: no targets\n")
}

func TestResolve(t *testing.T) {
	dir := setup(t)

	out, err := run(t, &fakeGit{}, "", "resolve", "-C", dir, "libs/auth/token.go")
	require.NoError(t, err)
	assert.Equal(t, "api\nlib-auth\n", out)

	out, err = run(t, &fakeGit{}, "libs/core/x.go\n\nservices/worker/main.go\n", "resolve", "-C", dir, "--explain")
	require.NoError(t, err)
	assert.Equal(t, "seed: lib-core, worker\nround 1: lib-auth\nround 2: api\n", out)
}

func TestReadLines(t *testing.T) {
	lines, err := readLines(strings.NewReader("a.go\r\n\n  spaced.go \nlast.go"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "  spaced.go ", "last.go"}, lines)
}

func TestBranches(t *testing.T) {
	dir := setup(t)
	git := &fakeGit{branches: map[gitops.BranchKind][]string{
		gitops.BranchAll:    {"feature", "main", "origin/main"},
		gitops.BranchLocal:  {"feature", "main"},
		gitops.BranchRemote: {"origin/main"},
	}}

	out, err := run(t, git, "", "branches", "-C", dir, "--remote")
	require.NoError(t, err)
	assert.Equal(t, "origin/main\n", out)

	out, err = run(t, git, "", "branches", "-C", dir)
	require.NoError(t, err)
	assert.Equal(t, "feature\nmain\norigin/main\n", out)

	_, err = run(t, git, "", "branches", "-C", dir, "--local", "--remote")
	require.Error(t, err)
}

func TestDeployableRef(t *testing.T) {
	dir := setup(t)
	git := &fakeGit{tags: []string{"api-v1.2.0", "api-v1.10.0", "web-v3.0.0"}}

	out, err := run(t, git, "", "deployable-ref", "-C", dir, "api-v*")
	require.NoError(t, err)
	assert.Equal(t, "api-v1.10.0\n", out)

	_, err = run(t, git, "", "deployable-ref", "-C", dir, "db-v*")
	require.Error(t, err)
}

func TestConfigShow(t *testing.T) {
	dir := setup(t)
	t.Setenv("RIPPLE_FORMAT", "table")

	out, err := run(t, &fakeGit{}, "", "config", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "# (using defaults, no config file found)")
	assert.Contains(t, out, "format: table\n")
	assert.Contains(t, out, "manifest: .manifest.yaml\n")

	out, err = run(t, &fakeGit{}, "", "config", "path", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "ripple.yaml"))
}

func TestConfigInit(t *testing.T) {
	dir := setup(t)

	out, err := run(t, &fakeGit{}, "", "config", "init", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Created config file:")
	assert.FileExists(t, config.ResolveXDGPaths().ConfigFilePath())

	_, err = run(t, &fakeGit{}, "", "config", "init", "-C", dir)
	require.ErrorContains(t, err, "already exists")
}

func TestVerboseEnv(t *testing.T) {
	dir := setup(t)
	t.Setenv("RIPPLE_VERBOSE", "true")

	ctx := t.Context()
	rootCmd := NewRootCmd(ctx, withGitOps(&fakeGit{}))
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"derive", "-C", dir})

	require.NoError(t, ExecuteWithFang(ctx, rootCmd))
	assert.Contains(t, stderr.String(), "comparing")
}
