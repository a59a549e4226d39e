package ghri

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// InstallSpec is the parsed, resolved input to a single install, carrying
// whatever the command layer extracted from a "owner/repo[@version]"
// argument plus the flags that modify resolution.
type InstallSpec struct {
	RepoId     RepoId
	Version    string // explicit tag requested, or empty for "latest"
	IncludePre bool   // --pre
}

// Pipeline orchestrates a single install against the four ports, following
// the Resolve -> EnsureMeta -> SelectRelease -> CreateTarget -> Download ->
// Extract -> CommitTarget -> Activate state machine.
type Pipeline struct {
	Root     string
	Runtime  RuntimePort
	HTTP     HTTPPort
	Archive  ArchivePort
	Provider Provider
	Registry *Registry
}

// NewPipeline builds a Pipeline wired to the given root and ports.
func NewPipeline(root string, runtime RuntimePort, http HTTPPort, archive ArchivePort, provider Provider, reg *Registry) *Pipeline {
	return &Pipeline{Root: root, Runtime: runtime, HTTP: http, Archive: archive, Provider: provider, Registry: reg}
}

// Install runs the pipeline for spec, returning the package's updated Meta.
// A signal watcher is armed for the duration so ctrl-C during a long
// download or extract leaves the cleanup registry to unwind any partial
// state, per §4.8 and §5.
func (p *Pipeline) Install(ctx context.Context, spec InstallSpec) (*Meta, error) {
	cancel := WatchInterrupt(p.Registry)
	defer cancel()

	meta, err := p.ensureMeta(ctx, spec.RepoId)
	if err != nil {
		return nil, err
	}

	release, err := p.selectRelease(meta, spec)
	if err != nil {
		return nil, err
	}

	packageDir := PackageDir(p.Root, spec.RepoId)
	versionDir := filepath.Join(packageDir, release.Tag)

	if _, statErr := os.Stat(versionDir); statErr == nil {
		if err := p.activate(meta, spec.RepoId, release.Tag); err != nil {
			return nil, err
		}
		return meta, nil
	}

	if err := p.createAndPopulate(ctx, versionDir, release); err != nil {
		return nil, err
	}

	if err := p.activate(meta, spec.RepoId, release.Tag); err != nil {
		return nil, err
	}
	return meta, nil
}

// ensureMeta loads the package's Meta, fetching and merging fresh
// repo/releases data from the provider when this is the first install
// (empty releases) — subsequent installs of an already-known package reuse
// the on-disk Meta as-is; update/upgrade handle re-fetching explicitly.
func (p *Pipeline) ensureMeta(ctx context.Context, id RepoId) (*Meta, error) {
	apiURL := p.Provider.APIURL()
	meta, err := EnsureMeta(p.Root, id, apiURL)
	if err != nil {
		return nil, err
	}
	if err := ValidateName(meta, id); err != nil {
		return nil, err
	}
	if len(meta.Releases) > 0 {
		return meta, nil
	}

	fetched, err := p.fetchMeta(ctx, id, apiURL)
	if err != nil {
		return nil, err
	}
	merged, _ := MergeMeta(*meta, *fetched)
	if err := SaveMeta(MetaPath(p.Root, id), &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// fetchMeta retrieves RepoMetadata and releases from the provider and
// assembles a transient Meta value suitable for merging into the on-disk
// one.
func (p *Pipeline) fetchMeta(ctx context.Context, id RepoId, apiURL string) (*Meta, error) {
	repoMeta, err := p.Provider.GetRepoMetadataAt(ctx, id, apiURL)
	if err != nil {
		return nil, err
	}
	releases, err := p.Provider.GetReleasesAt(ctx, id, apiURL)
	if err != nil {
		return nil, err
	}

	m := &Meta{Name: id.String(), APIURL: apiURL, Releases: releases}
	if repoMeta.Description != nil {
		m.Description = *repoMeta.Description
	}
	if repoMeta.Homepage != nil {
		m.Homepage = *repoMeta.Homepage
	}
	if repoMeta.License != nil {
		m.License = *repoMeta.License
	}
	if repoMeta.UpdatedAt != nil {
		m.UpdatedAt = *repoMeta.UpdatedAt
	}
	sortReleases(m.Releases)
	applyDefaults(m)
	return m, nil
}

// selectRelease applies the version resolver per §4.6/§4.8's Resolve step.
func (p *Pipeline) selectRelease(meta *Meta, spec InstallSpec) (Release, error) {
	if spec.Version != "" {
		release, ok := ResolveExact(meta.Releases, spec.Version, spec.IncludePre)
		if !ok {
			return Release{}, wrapErr(KindNotInstalled, "resolve version", spec.Version,
				fmt.Errorf("no release matching %q for %s", spec.Version, spec.RepoId))
		}
		return release, nil
	}

	var release Release
	var ok bool
	if spec.IncludePre {
		release, ok = ResolveLatestIncludingPre(meta.Releases)
	} else {
		release, ok = ResolveLatestStable(meta.Releases)
	}
	if !ok {
		return Release{}, wrapErr(KindNotInstalled, "resolve latest release", spec.RepoId.String(),
			fmt.Errorf("no eligible release found (pass --pre to include prereleases)"))
	}
	return release, nil
}

// createAndPopulate implements CreateTarget -> Download -> Extract ->
// CommitTarget. versionDir does not yet exist on entry; on any failure the
// target and temp directories are removed and the error is propagated,
// leaving no partial state visible at versionDir's path (invariant 5).
func (p *Pipeline) createAndPopulate(ctx context.Context, versionDir string, release Release) error {
	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		return wrapErr(KindFilesystem, "create version directory", versionDir, err)
	}
	releaseTarget := p.Registry.Acquire(versionDir)
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(versionDir)
		}
		releaseTarget()
	}()

	archivePath, cleanupArchive, err := p.download(ctx, versionDir, release)
	if err != nil {
		return err
	}
	defer cleanupArchive()

	tempExtract := versionDir + "_temp_extract"
	releaseTemp := p.Registry.Acquire(tempExtract)
	defer releaseTemp()

	if err := p.Archive.Extract(archivePath, tempExtract); err != nil {
		_ = os.RemoveAll(tempExtract)
		return err
	}

	if err := FlattenSingleTopLevelDir(tempExtract, versionDir); err != nil {
		_ = os.RemoveAll(tempExtract)
		return err
	}
	_ = os.RemoveAll(tempExtract)

	committed = true
	return nil
}

// download resolves the URL to fetch (an asset matching a recognized
// archive suffix, else the tarball URL) and streams it into a temp file
// named <tag>-<uuid>-<name>, so the archive suffix stays last for format
// sniffing, registered with the cleanup registry. The returned cleanup
// always removes the temp file; callers still own removing versionDir on
// failure.
func (p *Pipeline) download(ctx context.Context, versionDir string, release Release) (archivePath string, cleanup func(), err error) {
	downloadURL, name := selectDownloadSource(release)
	if downloadURL == "" {
		return "", nil, wrapErr(KindArchive, "select download asset", release.Tag,
			fmt.Errorf("release has no tarball or recognized archive asset"))
	}

	tmpDir := os.TempDir()
	archivePath = filepath.Join(tmpDir, fmt.Sprintf("%s-%s-%s", filepath.Base(versionDir), uuid.New().String(), name))
	releaseArchive := p.Registry.Acquire(archivePath)
	cleanup = func() {
		_ = os.Remove(archivePath)
		releaseArchive()
	}

	_, err = p.HTTP.Download(ctx, downloadURL, func() (io.WriteCloser, error) {
		return os.Create(archivePath)
	})
	if err != nil {
		cleanup()
		return "", func() {}, err
	}
	return archivePath, cleanup, nil
}

// selectDownloadSource picks the asset whose name has a recognized archive
// suffix, falling back to the release's tarball URL (always present for
// GitHub source-archive releases).
func selectDownloadSource(release Release) (url, name string) {
	for _, a := range release.Assets {
		if sniffFormat(a.Name) {
			return a.DownloadURL, a.Name
		}
	}
	if release.TarballURL != "" {
		return release.TarballURL, release.Tag + ".tar.gz"
	}
	return "", ""
}

// activate implements §4.8's Activate step: update current, apply floating
// links, persist Meta with the new current_version.
func (p *Pipeline) activate(meta *Meta, id RepoId, tag string) error {
	packageDir := PackageDir(p.Root, id)
	versionDir := filepath.Join(packageDir, tag)

	if err := ActivateCurrent(packageDir, tag); err != nil {
		return err
	}

	for _, warning := range ApplyFloatingLinks(meta.Links, versionDir) {
		fmt.Fprintf(os.Stderr, "warning: %v\n", warning)
	}

	meta.CurrentVersion = tag
	return SaveMeta(MetaPath(p.Root, id), meta)
}
