// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bodaay/ghri/internal/config"
	"github.com/bodaay/ghri/pkg/ghri"
)

// RootOpts carries the global flags and resolved settings shared by every
// subcommand.
type RootOpts struct {
	RootFlag   string
	APIURLFlag string
	JSONOut    bool
	Verbose    bool
	Quiet      bool

	resolved config.Resolved
}

// env bundles the constructed ports and pipeline a subcommand needs. It is
// built once per invocation in PersistentPreRunE and handed to each
// newXxxCmd closure.
type env struct {
	ro       *RootOpts
	runtime  ghri.RuntimePort
	http     ghri.HTTPPort
	archive  ghri.ArchivePort
	provider ghri.Provider
	registry *ghri.Registry
	pipeline *ghri.Pipeline
}

func (e *env) debugf(format string, args ...any) {
	if e.ro.Verbose {
		fmt.Fprintf(os.Stderr, "debug: "+format+"\n", args...)
	}
}

// Execute builds the root command and runs it, returning the error cobra
// produced (if any) so the caller can map it to an exit code.
func Execute(version string) error {
	ro := &RootOpts{}
	var e *env

	root := &cobra.Command{
		Use:           "ghri",
		Short:         "Install and manage software release packages from GitHub (and compatible hosts)",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			built, err := buildEnv(ro)
			if err != nil {
				return err
			}
			e = built
			return nil
		},
	}

	root.PersistentFlags().StringVar(&ro.RootFlag, "root", "", "install root directory (env GHRI_ROOT)")
	root.PersistentFlags().StringVar(&ro.APIURLFlag, "api-url", "", "provider API base URL (env GHRI_API_URL)")
	root.PersistentFlags().BoolVar(&ro.JSONOut, "json", false, "emit machine-readable JSON where supported")
	root.PersistentFlags().BoolVarP(&ro.Verbose, "verbose", "v", false, "enable debug output to stderr (no command emits debug lines; provider responses are not printed)")
	root.PersistentFlags().BoolVarP(&ro.Quiet, "quiet", "q", false, "suppress non-essential output")

	// Subcommands receive a pointer-to-pointer deref via closures so they see
	// the *env built by PersistentPreRunE, which runs after flag parsing but
	// before any subcommand's RunE.
	root.AddCommand(
		newInstallCmd(ro, &e),
		newUpdateCmd(ro, &e),
		newUpgradeCmd(ro, &e),
		newListCmd(ro, &e),
		newShowCmd(ro, &e),
		newLinkCmd(ro, &e),
		newUnlinkCmd(ro, &e),
		newRemoveCmd(ro, &e),
		newLinksCmd(ro, &e),
		newPathsCmd(ro, &e),
	)

	return root.Execute()
}

// buildEnv resolves configuration (flags > env > config file > default) and
// constructs the production ports.
func buildEnv(ro *RootOpts) (*env, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}

	runtime := ghri.NewOSRuntime()
	resolved := config.Resolve(cfg, runtime, ro.RootFlag, ro.APIURLFlag)
	ro.resolved = resolved

	var progress ghri.ProgressSink = ghri.NoopProgress
	if !ro.Quiet && isTerminal() {
		progress = ghri.NewBarProgress("downloading")
	}

	httpPort, err := ghri.NewHTTPPort(resolved.Token, progress)
	if err != nil {
		return nil, err
	}

	archivePort := ghri.NewArchivePort()
	provider := ghri.NewProviderFor(resolved.APIURL, httpPort)
	registry := ghri.NewRegistry()
	pipeline := ghri.NewPipeline(resolved.Root, runtime, httpPort, archivePort, provider, registry)

	return &env{
		ro:       ro,
		runtime:  runtime,
		http:     httpPort,
		archive:  archivePort,
		provider: provider,
		registry: registry,
		pipeline: pipeline,
	}, nil
}

// ExitCodeFor maps a returned error to the process exit code per §7:
// everything not otherwise classified is 1; KindInterrupt never reaches
// here in practice because the signal handler calls os.Exit(130) directly,
// but the mapping is kept for completeness and for tests.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if ghri.KindOf(err) == ghri.KindInterrupt {
		return 130
	}
	return 1
}
