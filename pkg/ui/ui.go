// Package ui holds the shared terminal color scheme and styles.
package ui

import (
	"os"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
)

// DefaultWidth is used when the terminal width cannot be determined.
const DefaultWidth = 80

// GetFangScheme returns the same light/dark-aware color scheme fang uses.
func GetFangScheme() fang.ColorScheme {
	isDark := lipgloss.HasDarkBackground(os.Stdin, os.Stdout)
	return fang.DefaultColorScheme(lipgloss.LightDark(isDark))
}

// Styles are the lipgloss styles used for result listings.
type Styles struct {
	Title     lipgloss.Style
	Section   lipgloss.Style
	Changed   lipgloss.Style
	Unchanged lipgloss.Style
	Muted     lipgloss.Style
}

// GetStyles returns listing styles. With color disabled every style renders
// plain text apart from bold headings.
func GetStyles(color bool) Styles {
	s := Styles{
		Title:     lipgloss.NewStyle().Bold(color),
		Section:   lipgloss.NewStyle().Bold(color),
		Changed:   lipgloss.NewStyle(),
		Unchanged: lipgloss.NewStyle(),
		Muted:     lipgloss.NewStyle(),
	}
	if !color {
		return s
	}

	cs := GetFangScheme()
	s.Title = s.Title.Foreground(cs.QuotedString)
	s.Section = s.Section.Foreground(cs.Program)
	s.Changed = s.Changed.Foreground(cs.Flag).Bold(true)
	s.Unchanged = s.Unchanged.Foreground(cs.Base).Faint(true)
	s.Muted = s.Muted.Foreground(cs.Base).Italic(true)

	return s
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(f.Fd())
}

// TermWidth returns the width of the terminal on stdout, then $COLUMNS, then
// DefaultWidth.
func TermWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && cols > 0 {
		return cols
	}
	return DefaultWidth
}
