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

// statusGlyph renders a link's status as a short TTY glyph (✓/✗/?), falling
// back to plain ASCII on a non-TTY (scripts, CI) so output stays diffable.
func statusGlyph(status ghri.LinkStatus) string {
	tty := isTerminal()
	switch status {
	case ghri.LinkValid:
		if tty {
			return "✓"
		}
		return "OK"
	case ghri.LinkNotExists, ghri.LinkWrongTarget, ghri.LinkNotSymlink:
		if tty {
			return "✗"
		}
		return "BROKEN"
	default:
		return "?"
	}
}

func newLinksCmd(ro *RootOpts, envp **env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links owner/repo",
		Short: "Print each declared link and its current status",
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
			packageDir := ghri.PackageDir(ro.resolved.Root, parsed.RepoId)

			for _, l := range meta.Links {
				versionDir := filepath.Join(packageDir, meta.CurrentVersion)
				status := ghri.EvaluateLinkStatus(l.Dest, versionDir)
				fmt.Fprintf(os.Stdout, "%s  %s (floating)\n", statusGlyph(status), l.Dest)
			}
			for _, l := range meta.VersionedLinks {
				versionDir := filepath.Join(packageDir, l.Version)
				status := ghri.EvaluateLinkStatus(l.Dest, versionDir)
				fmt.Fprintf(os.Stdout, "%s  %s (pinned @%s)\n", statusGlyph(status), l.Dest, l.Version)
			}
			return nil
		},
	}
	return cmd
}
