// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bodaay/ghri/pkg/ghri"
)

func newInstallCmd(ro *RootOpts, envp **env) *cobra.Command {
	var includePre bool

	cmd := &cobra.Command{
		Use:   "install owner/repo[@version]",
		Short: "Install a package from its release artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := *envp
			parsed, err := ghri.ParseSpec(args[0])
			if err != nil {
				return err
			}

			spec := ghri.InstallSpec{
				RepoId:     parsed.RepoId,
				Version:    parsed.Version,
				IncludePre: includePre,
			}

			meta, err := e.pipeline.Install(cmd.Context(), spec)
			if err != nil {
				return err
			}

			if !ro.Quiet {
				fmt.Fprintf(os.Stdout, "installed %s %s\n", meta.Name, meta.CurrentVersion)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includePre, "pre", false, "consider prerelease tags when resolving a version")

	return cmd
}
