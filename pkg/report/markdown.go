package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

// shortSHALen is how much of a commit SHA summaries show.
const shortSHALen = 7

func shortSHA(sha string) string {
	if len(sha) > shortSHALen {
		return sha[:shortSHALen]
	}
	return sha
}

// Markdown renders the report as a markdown summary: a headline, a table of
// targets with changed ones first, and the raw outcome map as JSON.
func Markdown(r *Report) (string, error) {
	raw, err := json.MarshalIndent(r.Targets, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding summary: %w", err)
	}

	changed := r.Changed()
	var sb strings.Builder

	fmt.Fprintf(&sb, "## ripple: %d of %d targets changed\n\n", len(changed), len(r.Targets))
	if r.Head != "" || r.Base != "" {
		fmt.Fprintf(&sb, "Comparing `%s` (`%s`) with its merge base `%s` on `%s`.\n\n",
			r.Head, shortSHA(r.HeadSHA), shortSHA(r.MergeBaseSHA), r.Base)
	}
	if r.Forced {
		sb.WriteString("All targets were forced.\n\n")
	}

	if len(r.Targets) > 0 {
		sb.WriteString("| Target | Changed | Reference |\n")
		sb.WriteString("| --- | --- | --- |\n")
		for _, name := range append(changed, r.Unchanged()...) {
			o := r.Targets[name]
			mark := "no"
			if o.Changed {
				mark = "**yes**"
			}
			fmt.Fprintf(&sb, "| `%s` | %s | `%s` |\n", name, mark, shortSHA(o.Reference))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "```json\n%s\n```\n", raw)

	return sb.String(), nil
}

// RenderMarkdown renders markdown for the terminal via glamour, wrapped at
// width. With color off it uses the plain notty style. Falls back to the raw
// text if rendering fails.
func RenderMarkdown(w io.Writer, md string, width int, color bool) error {
	style := glamour.WithStandardStyle("notty")
	if color {
		style = glamour.WithAutoStyle()
	}

	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		_, werr := fmt.Fprintln(w, strings.TrimSpace(md))
		return werr
	}

	rendered, err := renderer.Render(md)
	if err != nil {
		_, werr := fmt.Fprintln(w, strings.TrimSpace(md))
		return werr
	}

	_, err = fmt.Fprint(w, rendered)
	return err
}
