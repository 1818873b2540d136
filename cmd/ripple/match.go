package ripple

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yaklabco/ripple/pkg/manifest"
	"github.com/yaklabco/ripple/pkg/ui"
)

func newMatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "match <path>...",
		Short: "Show which targets each path matches directly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manifest()
			if err != nil {
				return err
			}

			styles := ui.GetStyles(a.color())
			w := cmd.OutOrStdout()

			for _, path := range args {
				patterns := m.Index().MatchingPatterns(path)
				if len(patterns) == 0 {
					_, _ = fmt.Fprintf(w, "%s: %s\n", path, styles.Muted.Render("no targets"))
					continue
				}
				_, _ = fmt.Fprintf(w, "%s: %s\n", path, strings.Join(m.Index().Matches(path), ", "))
				for _, p := range patterns {
					_, _ = fmt.Fprintf(w, "  %s %s\n", p.Target, styles.Muted.Render(p.Source))
				}
			}

			return nil
		},
	}
}

func newResolveCmd(a *app) *cobra.Command {
	var (
		force   bool
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [path...]",
		Short: "Resolve the targets a list of changed paths activates",
		Long: `Resolve the targets a list of changed paths activates, without git.

Paths are read from the arguments, or one per line from stdin when none are
given. The activated targets are printed one per line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manifest()
			if err != nil {
				return err
			}

			files := args
			if len(files) == 0 {
				files, err = readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			var opts []manifest.Option
			if force {
				opts = append(opts, manifest.WithForce())
			}
			res := manifest.NewResolver(m).Resolve(files, opts...)

			w := cmd.OutOrStdout()
			if explain {
				styles := ui.GetStyles(a.color())
				_, _ = fmt.Fprintf(w, "%s %s\n", styles.Section.Render("seed:"), strings.Join(res.Seed, ", "))
				for i, round := range res.Rounds {
					_, _ = fmt.Fprintf(w, "%s %s\n",
						styles.Section.Render(fmt.Sprintf("round %d:", i+1)), strings.Join(round, ", "))
				}
				return nil
			}

			for _, name := range res.Activated() {
				_, _ = fmt.Fprintln(w, name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "activate every target")
	cmd.Flags().BoolVar(&explain, "explain", false, "show the directly matched targets and each expansion round")

	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSuffix(scanner.Text(), "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading paths: %w", err)
	}
	return lines, nil
}
