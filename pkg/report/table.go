package report

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/muesli/reflow/wordwrap"
	"github.com/yaklabco/ripple/pkg/ui"
)

const (
	indent         = "  "
	termWidthFloor = 20
)

// WriteTable writes a human-readable listing of the report: the compared
// commits, the changed and unchanged targets with their references, and the
// changed files wrapped to width.
func WriteTable(w io.Writer, r *Report, width int, color bool) error {
	styles := ui.GetStyles(color)
	width = max(termWidthFloor, width)

	var sb strings.Builder

	if r.Head != "" {
		fmt.Fprintf(&sb, "%s %s (%s) vs merge base %s (%s)\n\n",
			styles.Title.Render("Comparing"),
			r.Head, shortSHA(r.HeadSHA), shortSHA(r.MergeBaseSHA), r.Base)
	}

	changed, unchanged := r.Changed(), r.Unchanged()
	nameWidth := 0
	for name := range r.Targets {
		nameWidth = max(nameWidth, lipgloss.Width(name))
	}
	nameCol := lipgloss.NewStyle().Width(nameWidth + 2)

	writeGroup := func(title string, names []string, style lipgloss.Style) {
		sb.WriteString(styles.Section.Render(fmt.Sprintf("%s (%d)", title, len(names))))
		sb.WriteString("\n")
		if len(names) == 0 {
			sb.WriteString(indent + styles.Muted.Render("none") + "\n")
		}
		for _, name := range names {
			sb.WriteString(indent)
			sb.WriteString(nameCol.Render(style.Render(name)))
			sb.WriteString(styles.Muted.Render(shortSHA(r.Targets[name].Reference)))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	title := "Changed"
	if r.Forced {
		title = "Changed (forced)"
	}
	writeGroup(title, changed, styles.Changed)
	writeGroup("Unchanged", unchanged, styles.Unchanged)

	if len(r.Files) > 0 {
		sb.WriteString(styles.Section.Render(fmt.Sprintf("Files (%d)", len(r.Files))))
		sb.WriteString("\n")
		wrapped := wordwrap.String(strings.Join(r.Files, " "), width-len(indent))
		for _, line := range strings.Split(wrapped, "\n") {
			sb.WriteString(indent + line + "\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
