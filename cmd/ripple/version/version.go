// Package version reports which build of ripple is running.
package version

import (
	"runtime/debug"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/yaklabco/ripple/pkg/ui"
)

// Build metadata, set at release time with
//
//	-ldflags "-X github.com/yaklabco/ripple/cmd/ripple/version.Version=v1.2.3"
//
//nolint:gochecknoglobals // populated by ldflags
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// buildSetting returns a VCS setting stamped into the binary by the Go
// toolchain, such as vcs.revision.
func buildSetting(key string) string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// EffectiveVersion returns, in order of preference: the ldflags version, the
// module version of a `go install module@version` build, the VCS revision
// (with a -dirty suffix for modified trees), or "dev".
func EffectiveVersion() string {
	if v := strings.TrimSpace(Version); v != "" && v != "dev" {
		return v
	}

	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		if mv := strings.TrimSpace(bi.Main.Version); mv != "" && mv != "(devel)" {
			return mv
		}
	}

	if rev := buildSetting("vcs.revision"); rev != "" {
		if buildSetting("vcs.modified") == "true" {
			return rev + "-dirty"
		}
		return rev
	}

	return "dev"
}

// EffectiveCommit returns the ldflags commit or the VCS revision.
func EffectiveCommit() string {
	if c := strings.TrimSpace(Commit); c != "" {
		return c
	}
	return buildSetting("vcs.revision")
}

// EffectiveBuildTime returns the build time from ldflags or VCS metadata.
func EffectiveBuildTime() (time.Time, bool) {
	for _, raw := range []string{strings.TrimSpace(BuildDate), buildSetting("vcs.time")} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// String renders version, commit, and build time joined by dashes. With
// color on, the parts use the help screen's palette.
func String(color bool) string {
	versionStyle := lipgloss.NewStyle()
	commitStyle := lipgloss.NewStyle()
	timeStyle := lipgloss.NewStyle()
	sepStyle := lipgloss.NewStyle()
	if color {
		cs := ui.GetFangScheme()
		versionStyle = versionStyle.Foreground(cs.QuotedString)
		commitStyle = commitStyle.Foreground(cs.Program)
		timeStyle = timeStyle.Foreground(cs.Flag)
		sepStyle = sepStyle.Foreground(cs.Base)
	}

	parts := []string{versionStyle.Render(EffectiveVersion())}
	if c := EffectiveCommit(); c != "" && c != EffectiveVersion() {
		parts = append(parts, commitStyle.Render(c))
	}
	if t, ok := EffectiveBuildTime(); ok {
		parts = append(parts, timeStyle.Render(t.Local().Format(time.RFC3339)))
	}

	return strings.Join(parts, sepStyle.Render("-"))
}
