package ripple

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yaklabco/ripple/pkg/deployref"
	"github.com/yaklabco/ripple/pkg/gitops"
)

func newBranchesCmd(a *app) *cobra.Command {
	var local, remote bool

	cmd := &cobra.Command{
		Use:   "branches",
		Short: "List the repository's branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind := gitops.BranchAll
			switch {
			case local:
				kind = gitops.BranchLocal
			case remote:
				kind = gitops.BranchRemote
			}

			branches, err := a.git(cmd).Branches(cmd.Context(), kind)
			if err != nil {
				return err
			}
			for _, b := range branches {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), b)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "only local branches")
	cmd.Flags().BoolVar(&remote, "remote", false, "only remote-tracking branches")
	cmd.MarkFlagsMutuallyExclusive("local", "remote")

	return cmd
}

func newDeployableRefCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deployable-ref <glob>",
		Short: "Print the highest versioned tag matching a glob",
		Long: `Print the highest versioned tag matching a glob.

The version is read from the part of the tag name starting at its first
digit, so "api-v*" picks the highest of tags like api-v1.2.0.`,
		Example: `	ripple deployable-ref 'v*'
	ripple deployable-ref 'api-v1.*'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := a.git(cmd).Tags(cmd.Context())
			if err != nil {
				return err
			}

			tag, err := deployref.Latest(tags, args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), tag)
			return err
		},
	}
}
