// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bodaay/ghri/pkg/ghri"
)

func newUpgradeCmd(ro *RootOpts, envp **env) *cobra.Command {
	var includePre bool
	var prune bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "upgrade [owner/repo...]",
		Short: "Update metadata and install the latest eligible release for each package",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := *envp

			if prune && !yes {
				confirmed, err := e.runtime.Confirm("Prune superseded version directories after upgrading?")
				if err != nil {
					return err
				}
				prune = confirmed
			}

			var filter []ghri.RepoId
			for _, a := range args {
				parsed, err := ghri.ParseSpec(a)
				if err != nil {
					return err
				}
				filter = append(filter, parsed.RepoId)
			}

			results := e.pipeline.Upgrade(cmd.Context(), filter, includePre, prune)

			var failed int
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "%s: %v\n", r.RepoId, r.Err)
					continue
				}
				if ro.Quiet {
					continue
				}
				switch {
				case r.Upgraded:
					fmt.Fprintf(os.Stdout, "%s upgraded %s -> %s\n", r.RepoId, r.FromTag, r.ToTag)
					for _, p := range r.Pruned {
						fmt.Fprintf(os.Stdout, "  pruned %s\n", p)
					}
				default:
					fmt.Fprintf(os.Stdout, "%s already at latest (%s)\n", r.RepoId, r.FromTag)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d packages failed to upgrade", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includePre, "pre", false, "include prerelease tags when checking for updates")
	cmd.Flags().BoolVar(&prune, "prune", false, "remove prior version directories not pinned by a versioned link")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the --prune confirmation prompt")

	return cmd
}
