package ghri

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// UpdateResult reports the outcome of refetching one package's metadata.
type UpdateResult struct {
	RepoId         RepoId
	Changed        bool
	CurrentVersion string
	LatestTag      string
	HasUpdate      bool
	Err            error
}

// Update refetches and merges metadata for every installed package under
// root (or the filter list, when non-empty), saving Meta only when
// MergeMeta reports a change. Per-package failures are collected rather
// than aborting the batch, matching §7's "per-package warnings, not
// batch-fatal" propagation policy for update.
func (p *Pipeline) Update(ctx context.Context, filter []RepoId, includePre bool) []UpdateResult {
	ids := filter
	if len(ids) == 0 {
		ids = discoverInstalledIds(p.Root)
	}

	results := make([]UpdateResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, p.updateOne(ctx, id, includePre))
	}
	return results
}

func (p *Pipeline) updateOne(ctx context.Context, id RepoId, includePre bool) UpdateResult {
	res := UpdateResult{RepoId: id}

	path := MetaPath(p.Root, id)
	existing, err := LoadMeta(path)
	if err != nil {
		res.Err = err
		return res
	}

	fetched, err := p.fetchMeta(ctx, id, existing.APIURL)
	if err != nil {
		res.Err = err
		return res
	}

	merged, changed := MergeMeta(*existing, *fetched)
	res.Changed = changed
	res.CurrentVersion = merged.CurrentVersion

	if changed {
		if err := SaveMeta(path, &merged); err != nil {
			res.Err = err
			return res
		}
	}

	var latest Release
	var ok bool
	if includePre {
		latest, ok = ResolveLatestIncludingPre(merged.Releases)
	} else {
		latest, ok = ResolveLatestStable(merged.Releases)
	}
	if ok {
		res.LatestTag = latest.Tag
		res.HasUpdate = !tagsEqual(latest.Tag, merged.CurrentVersion)
	}
	return res
}

// discoverInstalledIds walks root for every package that has a meta.json
// and returns its RepoId, derived from the owner/repo path components.
func discoverInstalledIds(root string) []RepoId {
	dirs, err := FindAllPackages(root)
	if err != nil {
		return nil
	}
	ids := make([]RepoId, 0, len(dirs))
	for _, dir := range dirs {
		repo := filepath.Base(dir)
		owner := filepath.Base(filepath.Dir(dir))
		ids = append(ids, RepoId{Owner: owner, Repo: repo})
	}
	return ids
}

// UpgradeResult reports the outcome of upgrading one package to its latest
// eligible release.
type UpgradeResult struct {
	RepoId   RepoId
	Upgraded bool
	FromTag  string
	ToTag    string
	Pruned   []string
	Err      error
}

// Upgrade implements §4.9: Update, then for each package whose latest
// differs from current_version, run the install pipeline against the new
// tag; when prune is set, remove every other version directory not
// referenced by a versioned_link.
func (p *Pipeline) Upgrade(ctx context.Context, filter []RepoId, includePre, prune bool) []UpgradeResult {
	updates := p.Update(ctx, filter, includePre)

	results := make([]UpgradeResult, 0, len(updates))
	for _, u := range updates {
		res := UpgradeResult{RepoId: u.RepoId, FromTag: u.CurrentVersion}
		if u.Err != nil {
			res.Err = u.Err
			results = append(results, res)
			continue
		}
		if !u.HasUpdate {
			results = append(results, res)
			continue
		}

		meta, err := p.Install(ctx, InstallSpec{RepoId: u.RepoId, Version: u.LatestTag, IncludePre: includePre})
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		res.Upgraded = true
		res.ToTag = meta.CurrentVersion

		if prune {
			pruned, err := p.pruneVersions(u.RepoId, meta)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: prune %s: %v\n", u.RepoId, err)
			}
			res.Pruned = pruned
		}
		results = append(results, res)
	}
	return results
}

// pruneVersions removes every version directory of id not equal to
// meta.CurrentVersion and not referenced by any VersionedLink, per §4.9.
func (p *Pipeline) pruneVersions(id RepoId, meta *Meta) ([]string, error) {
	packageDir := PackageDir(p.Root, id)
	entries, err := os.ReadDir(packageDir)
	if err != nil {
		return nil, wrapErr(KindFilesystem, "list package directory", packageDir, err)
	}

	pinned := make(map[string]bool, len(meta.VersionedLinks))
	for _, vl := range meta.VersionedLinks {
		pinned[vl.Version] = true
	}

	var pruned []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == meta.CurrentVersion || pinned[e.Name()] {
			continue
		}
		versionDir := filepath.Join(packageDir, e.Name())
		if err := os.RemoveAll(versionDir); err != nil {
			return pruned, wrapErr(KindFilesystem, "prune version directory", versionDir, err)
		}
		pruned = append(pruned, e.Name())
	}
	return pruned, nil
}
