package ripple

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yaklabco/ripple/pkg/manifest"
	"github.com/yaklabco/ripple/pkg/ui"
)

func newTargetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the manifest's targets, activators first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.manifest()
			if err != nil {
				return err
			}

			styles := ui.GetStyles(a.color())
			w := cmd.OutOrStdout()

			_, _ = fmt.Fprintf(w, "%s %s (base %s)\n\n",
				styles.Section.Render(fmt.Sprintf("%d targets", m.Len())), a.manifestPath(), m.Base())

			for _, name := range manifest.Order(m) {
				t, _ := m.Target(name)
				_, _ = fmt.Fprintln(w, styles.Title.Render(name))
				_, _ = fmt.Fprintf(w, "  patterns:     %s\n", strings.Join(t.Patterns(), ", "))
				if len(t.ActivatedBy) > 0 {
					_, _ = fmt.Fprintf(w, "  activated by: %s\n", strings.Join(t.ActivatedBy, ", "))
				}
				if deps := m.Graph().Dependents(name); len(deps) > 0 {
					_, _ = fmt.Fprintf(w, "  activates:    %s\n", styles.Muted.Render(strings.Join(deps, ", ")))
				}
			}

			return nil
		},
	}
}
