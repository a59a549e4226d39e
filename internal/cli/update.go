// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newUpdateCmd(ro *RootOpts, envp **env) *cobra.Command {
	var includePre bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refetch and merge metadata for every installed package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := *envp
			results := e.pipeline.Update(cmd.Context(), nil, includePre)

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
				if r.HasUpdate {
					fmt.Fprintf(os.Stdout, "%s %s -> %s available\n", r.RepoId, r.CurrentVersion, r.LatestTag)
				} else {
					fmt.Fprintf(os.Stdout, "%s %s up to date\n", r.RepoId, r.CurrentVersion)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d packages failed to update", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includePre, "pre", false, "include prerelease tags when checking for updates")
	return cmd
}
