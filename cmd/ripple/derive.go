package ripple

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/yaklabco/ripple/config"
	"github.com/yaklabco/ripple/pkg/report"
	"github.com/yaklabco/ripple/pkg/ripple"
	"github.com/yaklabco/ripple/pkg/ui"
)

func newDeriveCmd(a *app) *cobra.Command {
	var params ripple.DeriveParams

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Report which targets changed between a branch and its base",
		Long: `Report which targets changed between a branch and its base.

The head defaults to the checked out branch and the base to the manifest's
base branch. Files changed between the head and its merge base with the base
activate the targets whose patterns match them; activation then spreads to
targets activated by those. Each target is reported with the commit to build
it from: the head when it changed, the merge base otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params.ManifestPath = a.cfg.Manifest
			params.Dir = a.dir
			params.ForceOnBase = a.cfg.ForceOnBase
			params.Git = a.git(cmd)

			r, err := ripple.Derive(cmd.Context(), params)
			if err != nil {
				return err
			}

			if err := writeReport(cmd.OutOrStdout(), r, a.cfg.Format, a.color()); err != nil {
				return err
			}

			return writeActionsFiles(r, a.cfg)
		},
	}

	cmd.Flags().StringVar(&params.Head, "head", "", "head reference (default: current branch)")
	cmd.Flags().StringVar(&params.Base, "base", "", "base reference (default: the manifest's base)")
	cmd.Flags().CountVarP(&params.Force, "force", "f", "mark every target changed")
	cmd.Flags().Bool(config.FlagName(config.KeyForceOnBase), config.DefaultForceOnBase,
		"mark every target changed when the head is the manifest's base")
	cmd.Flags().Bool(config.FlagName(config.KeyActionsOutput), config.DefaultActionsOutput,
		"append outputs to the $GITHUB_OUTPUT file")
	cmd.Flags().Bool(config.FlagName(config.KeyStepSummary), config.DefaultStepSummary,
		"append a markdown summary to the $GITHUB_STEP_SUMMARY file")
	cmd.Flags().String(config.FlagName(config.KeyFormat), config.DefaultFormat,
		"output format: json, table, markdown, or names")

	_ = cmd.RegisterFlagCompletionFunc(config.FlagName(config.KeyFormat),
		cobra.FixedCompletions(config.Formats(), cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func writeReport(w io.Writer, r *report.Report, format string, color bool) error {
	switch format {
	case config.FormatTable:
		return report.WriteTable(w, r, ui.TermWidth(), color)
	case config.FormatMarkdown:
		md, err := report.Markdown(r)
		if err != nil {
			return err
		}
		return report.RenderMarkdown(w, md, ui.TermWidth(), color)
	case config.FormatNames:
		return report.WriteNames(w, r)
	case config.FormatJSON:
		return report.WriteJSON(w, r)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeActionsFiles(r *report.Report, cfg *config.Config) error {
	if cfg.ActionsOutput {
		path, err := report.ActionsFile(report.EnvGitHubOutput)
		if err != nil {
			return err
		}
		if err := report.WriteActionsOutput(path, r); err != nil {
			return err
		}
	}

	if cfg.StepSummary {
		path, err := report.ActionsFile(report.EnvGitHubStepSummary)
		if err != nil {
			return err
		}
		if err := report.WriteStepSummary(path, r); err != nil {
			return err
		}
	}

	return nil
}
