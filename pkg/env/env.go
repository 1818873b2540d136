// Package env reads the CI environment ripple runs in.
package env

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
)

// GitHub Actions variables consulted by ripple.
const (
	GitHubActions = "GITHUB_ACTIONS"
	GitHubHeadRef = "GITHUB_HEAD_REF"
	GitHubRefName = "GITHUB_REF_NAME"
	GitHubRefType = "GITHUB_REF_TYPE"
)

// ErrInvalidBool is returned when a string cannot be parsed as a boolean.
var ErrInvalidBool = errors.New("invalid boolean value")

// ParseBool interprets a string as a boolean after trimming and lowercasing.
//
// Accepted values:
//   - "true", "yes", "1"  -> true
//   - "false", "no", "0"  -> false
//   - "" (empty)          -> false, nil error
//   - any other non-empty -> false, ErrInvalidBool
func ParseBool(value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}

	switch strings.ToLower(value) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidBool, value)
	}
}

// ParseBoolEnv parses an environment variable with ParseBool. Unset variables
// read as false.
func ParseBoolEnv(envVar string) (bool, error) {
	return ParseBool(os.Getenv(envVar))
}

// ciVars are boolean variables set by common CI providers.
var ciVars = []string{ //nolint:gochecknoglobals // lookup table
	"CI",
	GitHubActions,
	"GITLAB_CI",
	"CIRCLECI",
	"BUILDKITE",
}

// CIEnvVarNames returns every variable InCI checks, so tests can clear them.
func CIEnvVarNames() []string {
	return append([]string(nil), ciVars...)
}

// InCI reports whether any known CI variable is set to a true value.
func InCI() bool {
	return lo.SomeBy(ciVars, func(v string) bool {
		b, err := ParseBoolEnv(v)
		return err == nil && b
	})
}

// InGitHubActions reports whether the process runs as a GitHub Actions step.
func InGitHubActions() bool {
	b, err := ParseBoolEnv(GitHubActions)
	return err == nil && b
}

// HeadBranch returns the branch GitHub Actions built, for checkouts where
// HEAD is detached. Pull request runs report the source branch; push runs
// report the pushed branch. Returns "" outside Actions or for tag pushes.
func HeadBranch() string {
	if !InGitHubActions() {
		return ""
	}
	if ref := os.Getenv(GitHubHeadRef); ref != "" {
		return ref
	}
	if os.Getenv(GitHubRefType) == "tag" {
		return ""
	}
	return os.Getenv(GitHubRefName)
}
