// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bodaay/ghri/pkg/ghri"
)

func newRemoveCmd(ro *RootOpts, envp **env) *cobra.Command {
	var force bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove owner/repo[@version]",
		Short: "Remove an installed package or a single version of one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := *envp
			parsed, err := ghri.ParseSpec(args[0])
			if err != nil {
				return err
			}

			if !yes {
				prompt := fmt.Sprintf("Remove %s?", args[0])
				confirmed, err := e.runtime.Confirm(prompt)
				if err != nil {
					return err
				}
				if !confirmed {
					return nil
				}
			}

			if parsed.Version == "" {
				if err := ghri.RemovePackage(ro.resolved.Root, parsed.RepoId); err != nil {
					return err
				}
				if !ro.Quiet {
					fmt.Fprintf(os.Stdout, "removed %s\n", parsed.RepoId)
				}
				return nil
			}

			noVersionActive, err := ghri.RemoveVersion(ro.resolved.Root, parsed.RepoId, parsed.Version, force)
			if err != nil {
				return err
			}
			if !ro.Quiet {
				fmt.Fprintf(os.Stdout, "removed %s@%s\n", parsed.RepoId, parsed.Version)
			}
			if noVersionActive {
				fmt.Fprintln(os.Stderr, "warning: no version is now active; run install or link to reactivate")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "allow removing the currently active version")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
