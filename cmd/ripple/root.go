// Package ripple implements the ripple command line.
package ripple

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/yaklabco/ripple/cmd/ripple/version"
	"github.com/yaklabco/ripple/config"
	rlog "github.com/yaklabco/ripple/internal/log"
	"github.com/yaklabco/ripple/pkg/gitops"
	"github.com/yaklabco/ripple/pkg/manifest"
	"github.com/yaklabco/ripple/pkg/ui"
)

const shortDescription = "Work out which monorepo targets a change impacts."

type rootCmdOptions struct {
	newGit func(dir string, cfg *config.Config, cmd *cobra.Command) gitops.GitOps
}

type Option func(*rootCmdOptions)

// withGitOps replaces the git collaborator. It exists for tests.
func withGitOps(git gitops.GitOps) Option {
	return func(opts *rootCmdOptions) {
		opts.newGit = func(string, *config.Config, *cobra.Command) gitops.GitOps { return git }
	}
}

func defaultGit(dir string, cfg *config.Config, cmd *cobra.Command) gitops.GitOps {
	git := gitops.NewGitOps(dir)
	if cfg.Verbose || cfg.Debug {
		git.Console = rlog.NewConsoleLogger(cmd.ErrOrStderr())
	}
	return git
}

// app is the state shared by every subcommand once flags and config are
// loaded.
type app struct {
	opts *rootCmdOptions

	dir string
	cfg *config.Config
}

// load reads configuration and sets up logging. Runs before every command.
// Without --dir, paths are taken from the root of the enclosing repository.
func (a *app) load(cmd *cobra.Command) error {
	if a.dir == "" {
		if root, err := gitops.FindRepo(cmd.Context(), ""); err == nil {
			a.dir = root
		}
	}

	cfg, err := config.Load(&config.LoadOptions{
		ProjectDir: a.dir,
		Flags:      cmd.Flags(),
		Stderr:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger := rlog.SetupPrettyLogger(cmd.ErrOrStderr())
	logger.SetLevel(rlog.LevelFor(cfg.Debug, cfg.Verbose))

	return nil
}

func (a *app) git(cmd *cobra.Command) gitops.GitOps {
	return a.opts.newGit(a.dir, a.cfg, cmd)
}

// manifest loads the configured manifest, relative to the repository dir.
func (a *app) manifest() (*manifest.Manifest, error) {
	return manifest.LoadFile(a.manifestPath())
}

func (a *app) manifestPath() string {
	path := a.cfg.Manifest
	if a.dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.dir, path)
}

// color reports whether output to stdout should be styled.
func (a *app) color() bool {
	return a.cfg.EnableColor && ui.IsTerminal(os.Stdout)
}

func NewRootCmd(ctx context.Context, opts ...Option) *cobra.Command {
	rootCmdOpts := &rootCmdOptions{newGit: defaultGit}
	for _, opt := range opts {
		opt(rootCmdOpts)
	}

	a := &app{opts: rootCmdOpts}

	rootCmd := &cobra.Command{
		Use:   "ripple",
		Short: shortDescription,
		Long: shortDescription + `

ripple reads a manifest of targets, each owning a set of path patterns and
optionally activated by other targets, and reports which targets a branch
changes relative to its base.`,
		Example: `	# Report changed targets of the current branch as JSON
	ripple derive

	# Compare a specific branch and write GitHub Actions outputs
	ripple derive --head feature/login --actions-output --step-summary

	# See which targets a few paths impact, without git
	ripple resolve libs/auth/token.go services/api/main.go

	# Check the manifest for dangling activators and cycles
	ripple validate --strict`,
		Version:       version.String(ui.IsTerminal(os.Stdout)),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	rootCmd.SetContext(ctx)

	rootCmd.PersistentFlags().StringVarP(&a.dir, "dir", "C", "", "repository directory (default: the enclosing repository root)")
	rootCmd.PersistentFlags().BoolP("debug", "d", config.DefaultDebug, "turn on debug messages")
	rootCmd.PersistentFlags().BoolP("verbose", "v", config.DefaultVerbose, "show informational messages and the git commands run")
	rootCmd.PersistentFlags().String("config", config.DefaultManifest, "manifest file, relative to the repository directory")
	rootCmd.PersistentFlags().Bool("enable-color", config.DefaultEnableColor, "enable colored output")

	rootCmd.AddCommand(
		newDeriveCmd(a),
		newTargetsCmd(a),
		newValidateCmd(a),
		newMatchCmd(a),
		newResolveCmd(a),
		newBranchesCmd(a),
		newDeployableRefCmd(a),
		newConfigCmd(a),
	)

	return rootCmd
}

// ExecuteWithFang runs the root Cobra command with Fang-specific options.
func ExecuteWithFang(ctx context.Context, rootCmd *cobra.Command) error {
	//nolint:wrapcheck // top-level error from cobra, wrapping not needed
	return fang.Execute(
		ctx, rootCmd, fang.WithVersion(rootCmd.Version), fang.WithoutManpage())
}
