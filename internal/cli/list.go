// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bodaay/ghri/pkg/ghri"
)

// listEntry is one line of `list` output.
type listEntry struct {
	Repo    string `json:"repo"`
	Version string `json:"version"`
}

func newListCmd(ro *RootOpts, envp **env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages and their active version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := ghri.FindAllPackages(ro.resolved.Root)
			if err != nil {
				return err
			}

			entries := make([]listEntry, 0, len(dirs))
			for _, dir := range dirs {
				meta, err := ghri.LoadMeta(filepath.Join(dir, ghri.ManifestFilename))
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", dir, err)
					continue
				}
				entries = append(entries, listEntry{Repo: meta.Name, Version: meta.CurrentVersion})
			}

			if ro.JSONOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			for _, en := range entries {
				fmt.Fprintf(os.Stdout, "%s %s\n", en.Repo, en.Version)
			}
			return nil
		},
	}
	return cmd
}
