// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// paths command prints the resolved install root and provider API URL in
// effect, for scripting and for debugging the flags > env > config file >
// default precedence chain.
func newPathsCmd(ro *RootOpts, envp **env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print the resolved install root and provider API URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(os.Stdout, "root:    %s\n", ro.resolved.Root)
			fmt.Fprintf(os.Stdout, "api-url: %s\n", ro.resolved.APIURL)
			return nil
		},
	}
	return cmd
}
