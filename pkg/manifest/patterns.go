package manifest

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/lo"
	"github.com/yaklabco/ripple/internal/log"
)

// Separator is the path separator patterns are compiled against. Changed-file
// paths are always slash separated, whatever the host platform.
const Separator = '/'

// Pattern is a compiled path pattern owned by one target.
type Pattern struct {
	Source string
	Target string

	glob glob.Glob
}

// Match reports whether path matches the pattern.
func (p Pattern) Match(path string) bool {
	return p.glob.Match(path)
}

// maxGlobstars bounds the `**/` segments in one pattern. Each one doubles
// the number of compiled alternatives.
const maxGlobstars = 8

// CompilePattern compiles a single pattern with shell-glob semantics: `*` and
// `?` stay within one path segment, `**` spans segments, and `[...]` and
// `{a,b}` work as usual. A `**` must be a whole path segment, and `**/`
// also matches zero directories, so `**/go.mod` matches the root go.mod.
// A pattern without metacharacters only matches the identical path.
func CompilePattern(source string) (glob.Glob, error) {
	variants, err := expandGlobstars(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, source, err)
	}

	globs := make(anyGlob, 0, len(variants))
	for _, v := range variants {
		g, err := glob.Compile(v, Separator)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, source, err)
		}
		globs = append(globs, g)
	}

	if len(globs) == 1 {
		return globs[0], nil
	}
	return globs, nil
}

// anyGlob matches when any of its globs does.
type anyGlob []glob.Glob

func (a anyGlob) Match(path string) bool {
	return slices.ContainsFunc(a, func(g glob.Glob) bool { return g.Match(path) })
}

// expandGlobstars returns source together with every variant that drops one
// or more of its `**/` segments. Escaped characters and bracket classes are
// left alone.
func expandGlobstars(source string) ([]string, error) {
	var optional []int
	for i := 0; i < len(source); i++ {
		switch source[i] {
		case '\\':
			i++
		case '[':
			end := strings.IndexByte(source[i+1:], ']')
			if end < 0 {
				return []string{source}, nil
			}
			i += end + 1
		case '*':
			run := 1
			for i+run < len(source) && source[i+run] == '*' {
				run++
			}
			if run == 1 {
				continue
			}
			startsSegment := i == 0 || source[i-1] == Separator
			endsSegment := i+run == len(source) || source[i+run] == Separator
			if run > 2 || !startsSegment || !endsSegment {
				return nil, errors.New("`**` must be a whole path segment")
			}
			if i+run < len(source) {
				optional = append(optional, i)
			}
			i += run - 1
		}
	}

	if len(optional) > maxGlobstars {
		return nil, fmt.Errorf("more than %d `**/` segments", maxGlobstars)
	}

	variants := make([]string, 0, 1<<len(optional))
	for mask := range 1 << len(optional) {
		var b strings.Builder
		last := 0
		for bit, pos := range optional {
			if mask&(1<<bit) == 0 {
				continue
			}
			b.WriteString(source[last:pos])
			last = pos + len("**/")
		}
		b.WriteString(source[last:])
		variants = append(variants, b.String())
	}
	return variants, nil
}

// PatternIndex maps path patterns to the targets that own them.
type PatternIndex struct {
	patterns []Pattern
}

// NewPatternIndex compiles the path and globs of every target. It fails on
// the first pattern that does not compile.
func NewPatternIndex(targets []Target) (*PatternIndex, error) {
	idx := &PatternIndex{}
	for _, t := range targets {
		for _, src := range t.Patterns() {
			g, err := CompilePattern(src)
			if err != nil {
				return nil, fmt.Errorf("target %q: %w", t.Name, err)
			}
			if alts, ok := g.(anyGlob); ok {
				slog.Debug("expanded globstar pattern",
					slog.String(log.Target, t.Name),
					slog.String(log.Pattern, src),
					slog.Int(log.Count, len(alts)))
			}
			idx.patterns = append(idx.patterns, Pattern{Source: src, Target: t.Name, glob: g})
		}
	}
	return idx, nil
}

// Len returns the number of indexed patterns.
func (idx *PatternIndex) Len() int {
	return len(idx.patterns)
}

// Patterns returns the indexed patterns in index order.
func (idx *PatternIndex) Patterns() []Pattern {
	return slices.Clone(idx.patterns)
}

// Matches returns the sorted names of every target with a pattern matching
// path. A target appears once however many of its patterns match.
func (idx *PatternIndex) Matches(path string) []string {
	var out []string
	for _, p := range idx.patterns {
		if !slices.Contains(out, p.Target) && p.Match(path) {
			out = append(out, p.Target)
		}
	}
	slices.Sort(out)
	return out
}

// MatchingPatterns returns the patterns that match path, for diagnostics.
func (idx *PatternIndex) MatchingPatterns(path string) []Pattern {
	return lo.Filter(idx.patterns, func(p Pattern, _ int) bool {
		return p.Match(path)
	})
}

// MatchAll returns the union of Matches over paths, sorted.
func (idx *PatternIndex) MatchAll(paths []string) []string {
	seen := make(map[string]struct{})
	for _, path := range paths {
		for _, p := range idx.patterns {
			if _, ok := seen[p.Target]; ok {
				continue
			}
			if p.Match(path) {
				seen[p.Target] = struct{}{}
			}
		}
	}
	out := lo.Keys(seen)
	slices.Sort(out)
	return out
}
