package ripple

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yaklabco/ripple/pkg/manifest"
	"github.com/yaklabco/ripple/pkg/ui"
)

// ErrFindings is returned by validate --strict when the manifest has findings.
var ErrFindings = errors.New("manifest has findings")

func newValidateCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the manifest for dangling activators and activation cycles",
		Long: `Check the manifest for dangling activators and activation cycles.

Loading already rejects malformed documents and invalid patterns. The
findings reported here do not change how the manifest resolves: a dangling
activator never activates anything and cycles settle once every member is
active. With --strict any finding fails the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.manifest()
			if err != nil {
				return err
			}

			styles := ui.GetStyles(a.color())
			w := cmd.OutOrStdout()

			findings := manifest.Validate(m)
			if len(findings) == 0 {
				_, _ = fmt.Fprintf(w, "%s: %d targets, no findings\n", a.manifestPath(), m.Len())
				return nil
			}

			for _, f := range findings {
				_, _ = fmt.Fprintf(w, "%s %s: %s\n", styles.Changed.Render(string(f.Kind)), f.Target, f.Message)
			}

			if strict {
				return fmt.Errorf("%w: %d", ErrFindings, len(findings))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail when there are findings")

	return cmd
}
