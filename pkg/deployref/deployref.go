// Package deployref picks the tag a target should be deployed from.
package deployref

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/yaklabco/ripple/pkg/manifest"
)

// ErrNoMatch is returned when no tag matches the pattern with a valid version.
var ErrNoMatch = errors.New("no deployable tag")

type candidate struct {
	tag     string
	version *semver.Version
}

// Latest returns the tag with the highest semantic version among tags whose
// name matches pattern. The version is read from the tag after any prefix
// before the first digit, so "api-v1.2.0" is version 1.2.0. Tags with equal
// versions are ordered by name and the first wins.
func Latest(tags []string, pattern string) (string, error) {
	g, err := manifest.CompilePattern(pattern)
	if err != nil {
		return "", err
	}

	var candidates []candidate
	for _, tag := range tags {
		if !g.Match(tag) {
			continue
		}
		v, ok := Version(tag)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{tag: tag, version: v})
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: %q", ErrNoMatch, pattern)
	}

	best := slices.MaxFunc(candidates, func(a, b candidate) int {
		if c := a.version.Compare(b.version); c != 0 {
			return c
		}
		return strings.Compare(b.tag, a.tag)
	})

	return best.tag, nil
}

// Version parses the semantic version embedded in tag.
func Version(tag string) (*semver.Version, bool) {
	i := strings.IndexAny(tag, "0123456789")
	if i < 0 {
		return nil, false
	}
	v, err := semver.NewVersion(tag[i:])
	if err != nil {
		return nil, false
	}
	return v, true
}
