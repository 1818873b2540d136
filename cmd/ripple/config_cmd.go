package ripple

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yaklabco/ripple/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage ripple configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, a)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Display the effective configuration (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runConfigShow(cmd, a)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show configuration file locations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runConfigPath(cmd, a)
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Create a default user configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path := config.ResolveXDGPaths().ConfigFilePath()
				if err := config.WriteDefaultConfig(path); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", path)
				return nil
			},
		},
	)

	return cmd
}

func runConfigShow(cmd *cobra.Command, a *app) error {
	cfg := a.cfg
	w := cmd.OutOrStdout()

	_, _ = fmt.Fprintln(w, "# Effective ripple configuration")
	if cfg.ConfigFile() != "" {
		_, _ = fmt.Fprintf(w, "# Loaded from: %s\n", cfg.ConfigFile())
	} else {
		_, _ = fmt.Fprintln(w, "# (using defaults, no config file found)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%s: %s\n", config.KeyManifest, cfg.Manifest)
	_, _ = fmt.Fprintf(w, "%s: %s\n", config.KeyFormat, cfg.Format)
	_, _ = fmt.Fprintf(w, "%s: %v\n", config.KeyVerbose, cfg.Verbose)
	_, _ = fmt.Fprintf(w, "%s: %v\n", config.KeyDebug, cfg.Debug)
	_, _ = fmt.Fprintf(w, "%s: %v\n", config.KeyEnableColor, cfg.EnableColor)
	_, _ = fmt.Fprintf(w, "%s: %v\n", config.KeyForceOnBase, cfg.ForceOnBase)
	_, _ = fmt.Fprintf(w, "%s: %v\n", config.KeyActionsOutput, cfg.ActionsOutput)
	_, _ = fmt.Fprintf(w, "%s: %v\n", config.KeyStepSummary, cfg.StepSummary)

	return nil
}

func runConfigPath(cmd *cobra.Command, a *app) error {
	w := cmd.OutOrStdout()
	paths := config.ResolveXDGPaths()

	projectDir := a.dir
	if projectDir == "" {
		projectDir = "."
	}

	_, _ = fmt.Fprintln(w, "Configuration Paths:")
	_, _ = fmt.Fprintf(w, "  User config:    %s\n", paths.ConfigFilePath())
	_, _ = fmt.Fprintf(w, "  Project config: %s\n", config.ProjectConfigPath(projectDir))
	_, _ = fmt.Fprintf(w, "  Manifest:       %s\n", a.manifestPath())

	if a.cfg.ConfigFile() != "" {
		_, _ = fmt.Fprintf(w, "\nActive config file: %s\n", a.cfg.ConfigFile())
	} else {
		_, _ = fmt.Fprintln(w, "\nNo config file currently loaded (using defaults)")
	}

	return nil
}
