package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

// GitHub Actions environment variables naming the files steps append to.
const (
	EnvGitHubOutput      = "GITHUB_OUTPUT"
	EnvGitHubStepSummary = "GITHUB_STEP_SUMMARY"
)

// Output names written by WriteActionsOutput.
const (
	OutputManifest  = "manifest"
	OutputChanged   = "changed_targets"
	OutputUnchanged = "unchanged_targets"
)

// ErrNoActionsFile is returned when the GitHub Actions file variable is unset.
var ErrNoActionsFile = errors.New("GitHub Actions file not configured")

// newDelimiter returns a heredoc delimiter that cannot collide with a value.
var newDelimiter = func() string { //nolint:gochecknoglobals // replaced in tests
	return "ghadelimiter_" + uuid.NewString()
}

// ActionsFile returns the path held by the GitHub Actions variable env.
func ActionsFile(env string) (string, error) {
	path := os.Getenv(env)
	if path == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrNoActionsFile, env)
	}
	return path, nil
}

// WriteActionsOutput appends the manifest, changed_targets, and
// unchanged_targets outputs to the GITHUB_OUTPUT file at path.
func WriteActionsOutput(path string, r *Report) error {
	manifestJSON, err := json.Marshal(r.Targets)
	if err != nil {
		return fmt.Errorf("encoding manifest output: %w", err)
	}
	changedJSON, err := json.Marshal(nonNil(r.Changed()))
	if err != nil {
		return fmt.Errorf("encoding changed targets: %w", err)
	}
	unchangedJSON, err := json.Marshal(nonNil(r.Unchanged()))
	if err != nil {
		return fmt.Errorf("encoding unchanged targets: %w", err)
	}

	var sb strings.Builder
	for _, kv := range [][2]string{
		{OutputManifest, string(manifestJSON)},
		{OutputChanged, string(changedJSON)},
		{OutputUnchanged, string(unchangedJSON)},
	} {
		if err := writeOutput(&sb, kv[0], kv[1]); err != nil {
			return err
		}
	}

	return appendFile(path, sb.String())
}

// writeOutput writes one name/value pair in the multiline form GitHub
// Actions accepts for any value.
func writeOutput(w io.Writer, name, value string) error {
	delim := newDelimiter()
	if strings.Contains(name, delim) || strings.Contains(value, delim) {
		return fmt.Errorf("output %s: value contains delimiter %s", name, delim)
	}
	_, err := fmt.Fprintf(w, "%s<<%s\n%s\n%s\n", name, delim, value, delim)
	return err
}

// WriteStepSummary appends the markdown summary to the GITHUB_STEP_SUMMARY
// file at path.
func WriteStepSummary(path string, r *Report) error {
	md, err := Markdown(r)
	if err != nil {
		return err
	}
	return appendFile(path, md)
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.WriteString(f, content); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
