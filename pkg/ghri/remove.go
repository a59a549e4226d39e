package ghri

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// RemovePackage implements §4.10's whole-package remove: every link and
// versioned_link is safe-removed against the package directory prefix,
// then the package directory is deleted outright, then the owner directory
// is removed too if it is now empty.
func RemovePackage(root string, id RepoId) error {
	packageDir := PackageDir(root, id)
	meta, err := LoadMeta(MetaPath(root, id))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			// Meta failed to load for a reason other than absence: still
			// attempt the directory removal, since the directory itself is
			// the thing the user asked to remove, but surface the load
			// failure as a warning.
			fmt.Fprintf(os.Stderr, "warning: could not load meta for %s: %v\n", id, err)
		}
		meta = &Meta{}
	}

	for _, rule := range meta.Links {
		result, err := SafeRemoveLink(rule.Dest, packageDir)
		reportRemoveResult("link", rule.Dest, result, err)
	}
	for _, vl := range meta.VersionedLinks {
		result, err := SafeRemoveLink(vl.Dest, packageDir)
		reportRemoveResult("versioned link", vl.Dest, result, err)
	}

	if err := os.RemoveAll(packageDir); err != nil {
		return wrapErr(KindFilesystem, "remove package directory", packageDir, err)
	}

	ownerDir := filepath.Dir(packageDir)
	if entries, err := os.ReadDir(ownerDir); err == nil && len(entries) == 0 {
		_ = os.Remove(ownerDir)
	}
	return nil
}

// RemoveVersion implements §4.10's per-tag remove: refuses to remove the
// active version unless force is set; safe-removes only the links that
// currently resolve under the version directory plus all versioned_links
// pinned to that tag; removes the version directory; if it was current,
// also removes the current symlink and the caller is told to warn the
// user that no version remains active.
func RemoveVersion(root string, id RepoId, tag string, force bool) (noVersionActive bool, err error) {
	path := MetaPath(root, id)
	meta, err := LoadMeta(path)
	if err != nil {
		return false, err
	}

	wasCurrent := tagsEqual(meta.CurrentVersion, tag)
	if wasCurrent && !force {
		return false, wrapErr(KindPrecondition, "remove version", tag,
			fmt.Errorf("%s is the active version of %s; pass --force to remove it anyway", tag, id))
	}

	packageDir := PackageDir(root, id)
	versionDir := filepath.Join(packageDir, tag)

	for _, rule := range meta.Links {
		status := EvaluateLinkStatus(rule.Dest, versionDir)
		if status != LinkValid {
			continue
		}
		result, err := SafeRemoveLink(rule.Dest, versionDir)
		reportRemoveResult("link", rule.Dest, result, err)
	}

	var keptVersionedLinks []VersionedLink
	for _, vl := range meta.VersionedLinks {
		if tagsEqual(vl.Version, tag) {
			result, err := SafeRemoveLink(vl.Dest, versionDir)
			reportRemoveResult("versioned link", vl.Dest, result, err)
			continue
		}
		keptVersionedLinks = append(keptVersionedLinks, vl)
	}
	meta.VersionedLinks = keptVersionedLinks

	if err := os.RemoveAll(versionDir); err != nil {
		return false, wrapErr(KindFilesystem, "remove version directory", versionDir, err)
	}

	if wasCurrent {
		current := CurrentLinkPath(packageDir)
		if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "warning: could not remove current symlink: %v\n", err)
		}
		meta.CurrentVersion = ""
		noVersionActive = true
	}

	if err := SaveMeta(path, meta); err != nil {
		return noVersionActive, err
	}
	return noVersionActive, nil
}

func reportRemoveResult(kind, dest string, result RemoveResult, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: removing %s %s: %v\n", kind, dest, err)
		return
	}
	switch result {
	case RemoveRemoved, RemoveNotExists:
		return
	case RemoveExternalTarget:
		fmt.Fprintf(os.Stderr, "warning: %s %s points outside the package directory, left untouched\n", kind, dest)
	default:
		fmt.Fprintf(os.Stderr, "warning: %s %s: %s\n", kind, dest, result)
	}
}
