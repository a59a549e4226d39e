// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bodaay/ghri/pkg/ghri"
)

func newUnlinkCmd(ro *RootOpts, envp **env) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "unlink owner/repo[:path] [DEST]",
		Short: "Remove a previously declared link",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := ghri.ParseSpec(args[0])
			if err != nil {
				return err
			}
			var dest string
			if len(args) == 2 {
				dest = args[1]
			}
			if !all && dest == "" && parsed.Path == "" {
				return fmt.Errorf("unlink requires DEST, --all, or a :path selector")
			}

			match := func(l ghri.LinkRule) bool {
				if all {
					return true
				}
				if dest != "" {
					return l.Dest == dest
				}
				return l.Path == parsed.Path
			}
			matchVersioned := func(l ghri.VersionedLink) bool {
				if all {
					return true
				}
				if dest != "" {
					return l.Dest == dest
				}
				return l.Path == parsed.Path
			}

			path := ghri.MetaPath(ro.resolved.Root, parsed.RepoId)
			meta, err := ghri.LoadMeta(path)
			if err != nil {
				return err
			}
			packageDir := ghri.PackageDir(ro.resolved.Root, parsed.RepoId)

			var keptLinks []ghri.LinkRule
			for _, l := range meta.Links {
				if !match(l) {
					keptLinks = append(keptLinks, l)
					continue
				}
				result, err := ghri.SafeRemoveLink(l.Dest, packageDir)
				reportUnlink(l.Dest, result, err)
			}
			meta.Links = keptLinks

			var keptVersioned []ghri.VersionedLink
			for _, l := range meta.VersionedLinks {
				if !matchVersioned(l) {
					keptVersioned = append(keptVersioned, l)
					continue
				}
				result, err := ghri.SafeRemoveLink(l.Dest, packageDir)
				reportUnlink(l.Dest, result, err)
			}
			meta.VersionedLinks = keptVersioned

			return ghri.SaveMeta(path, meta)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "remove every declared link for this package")
	return cmd
}

func reportUnlink(dest string, result ghri.RemoveResult, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: unlink %s: %v\n", dest, err)
		return
	}
	if result == ghri.RemoveExternalTarget {
		fmt.Fprintf(os.Stderr, "warning: %s points outside the package directory, left untouched\n", dest)
	}
}
