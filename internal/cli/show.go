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

// show command pretty-printer: dumps Meta in a human table by default,
// falling back to a raw JSON dump with --json.
func newShowCmd(ro *RootOpts, envp **env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show owner/repo",
		Short: "Print a package's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := ghri.ParseSpec(args[0])
			if err != nil {
				return err
			}

			path := ghri.MetaPath(ro.resolved.Root, parsed.RepoId)
			meta, err := ghri.LoadMeta(path)
			if err != nil {
				return err
			}

			if ro.JSONOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(meta)
			}

			printMetaHuman(meta, ghri.PackageDir(ro.resolved.Root, parsed.RepoId))
			return nil
		},
	}
	return cmd
}

func printMetaHuman(meta *ghri.Meta, packageDir string) {
	fmt.Printf("%s\n", meta.Name)
	if meta.Description != "" {
		fmt.Printf("  %s\n", meta.Description)
	}
	if meta.Homepage != "" {
		fmt.Printf("  homepage: %s\n", meta.Homepage)
	}
	if meta.License != "" {
		fmt.Printf("  license:  %s\n", meta.License)
	}
	fmt.Printf("  current:  %s\n", meta.CurrentVersion)
	fmt.Printf("  api url:  %s\n", meta.APIURL)

	fmt.Println("\nreleases:")
	for _, r := range meta.Releases {
		marker := "  "
		if r.Tag == meta.CurrentVersion {
			marker = "* "
		}
		pre := ""
		if r.Prerelease {
			pre = " (prerelease)"
		}
		size := ""
		if total := totalAssetSize(r.Assets); total > 0 {
			size = fmt.Sprintf(" (%s)", humanSize(total))
		}
		fmt.Printf("%s%s%s%s\n", marker, r.Tag, pre, size)
	}

	if len(meta.Links) > 0 {
		fmt.Println("\nlinks:")
		for _, l := range meta.Links {
			versionDir := filepath.Join(packageDir, meta.CurrentVersion)
			status := ghri.EvaluateLinkStatus(l.Dest, versionDir)
			fmt.Printf("  %s -> %s [%s]\n", l.Dest, versionDir, status)
		}
	}

	if len(meta.VersionedLinks) > 0 {
		fmt.Println("\nversioned links:")
		for _, l := range meta.VersionedLinks {
			versionDir := filepath.Join(packageDir, l.Version)
			status := ghri.EvaluateLinkStatus(l.Dest, versionDir)
			fmt.Printf("  %s @%s [%s]\n", l.Dest, l.Version, status)
		}
	}
}

// totalAssetSize sums the size of every asset on a release, for the
// human-readable size annotation in the release listing.
func totalAssetSize(assets []ghri.Asset) int64 {
	var total int64
	for _, a := range assets {
		total += a.Size
	}
	return total
}
