// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bodaay/ghri/pkg/ghri"
)

func newLinkCmd(ro *RootOpts, envp **env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link owner/repo[@tag][:path] DEST",
		Short: "Create or rewrite a symlink to an installed package",
		Long: `Create or rewrite a symlink at DEST pointing into an installed version.

Without :path, the link target is chosen from the version directory: if it
holds exactly one entry and that entry is a regular file, the link points at
that file; otherwise (including a single subdirectory) it points at the
version directory itself. If DEST is an existing directory, the target's base
name is appended to it. With @tag the link is pinned to that version; without
it, the link follows the current version on install and upgrade.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := ghri.ParseSpec(args[0])
			if err != nil {
				return err
			}
			dest := args[1]

			path := ghri.MetaPath(ro.resolved.Root, parsed.RepoId)
			meta, err := ghri.LoadMeta(path)
			if err != nil {
				return err
			}

			tag := parsed.Version
			pinned := parsed.Version != ""
			if tag == "" {
				tag = meta.CurrentVersion
				if tag == "" {
					return wrapNoCurrent(parsed.RepoId)
				}
			}

			packageDir := ghri.PackageDir(ro.resolved.Root, parsed.RepoId)
			versionDir := filepath.Join(packageDir, tag)

			if fi, statErr := os.Stat(dest); statErr == nil && fi.IsDir() {
				target, err := ghri.DetermineLinkTarget(versionDir, parsed.Path)
				if err != nil {
					return err
				}
				dest = filepath.Join(dest, filepath.Base(target))
			}

			skipped, err := ghri.CreateOrUpdateLink(dest, versionDir, parsed.Path)
			if err != nil {
				return err
			}
			if skipped {
				return wrapErrPrecondition(dest)
			}

			if pinned {
				meta.VersionedLinks = dedupeVersionedLinks(append(meta.VersionedLinks, ghri.VersionedLink{
					Dest: dest, Version: tag, Path: parsed.Path,
				}))
			} else {
				meta.Links = dedupeLinks(append(meta.Links, ghri.LinkRule{Dest: dest, Path: parsed.Path}))
			}

			if err := ghri.SaveMeta(path, meta); err != nil {
				return err
			}

			if !ro.Quiet {
				fmt.Fprintf(os.Stdout, "linked %s -> %s\n", dest, versionDir)
			}
			return nil
		},
	}
	return cmd
}

func dedupeLinks(links []ghri.LinkRule) []ghri.LinkRule {
	seen := make(map[string]int, len(links))
	out := make([]ghri.LinkRule, 0, len(links))
	for _, l := range links {
		if i, ok := seen[l.Dest]; ok {
			out[i] = l
			continue
		}
		seen[l.Dest] = len(out)
		out = append(out, l)
	}
	return out
}

func dedupeVersionedLinks(links []ghri.VersionedLink) []ghri.VersionedLink {
	seen := make(map[string]int, len(links))
	out := make([]ghri.VersionedLink, 0, len(links))
	for _, l := range links {
		if i, ok := seen[l.Dest]; ok {
			out[i] = l
			continue
		}
		seen[l.Dest] = len(out)
		out = append(out, l)
	}
	return out
}

func wrapNoCurrent(id ghri.RepoId) error {
	return fmt.Errorf("%s has no current version installed; install it or pass @tag", id)
}

func wrapErrPrecondition(dest string) error {
	return fmt.Errorf("%s already exists and is not a symlink; refusing to overwrite", dest)
}
