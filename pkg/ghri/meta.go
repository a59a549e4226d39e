package ghri

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFilename is the name of the per-package metadata file.
const ManifestFilename = "meta.json"

// LinkRule is a floating external link: rewritten to the current version on
// every install/upgrade.
type LinkRule struct {
	Dest string `json:"dest"`
	Path string `json:"path,omitempty"`
}

// VersionedLink is a pinned external link: declared against a specific tag
// and never rewritten by install/upgrade.
type VersionedLink struct {
	Dest    string `json:"dest"`
	Version string `json:"version"`
	Path    string `json:"path,omitempty"`
}

// Meta is the persisted per-package state stored at
// <root>/<owner>/<repo>/meta.json.
type Meta struct {
	Name           string          `json:"name"`
	APIURL         string          `json:"api_url"`
	Description    string          `json:"description,omitempty"`
	Homepage       string          `json:"homepage,omitempty"`
	License        string          `json:"license,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
	CurrentVersion string          `json:"current_version"`
	Releases       []Release       `json:"releases"`
	Links          []LinkRule      `json:"links"`
	VersionedLinks []VersionedLink `json:"versioned_links"`
}

// legacyMeta mirrors Meta's on-disk shape plus the two retired single-link
// fields, used only for decoding — §3 calls for them to be "migrated into
// links on load" and "absent on output".
type legacyMeta struct {
	Meta
	LinkedTo   *string `json:"linked_to,omitempty"`
	LinkedPath *string `json:"linked_path,omitempty"`
}

// LoadMeta reads and deserializes the meta.json at path, applying defaults
// and migrating legacy linked_to/linked_path fields into Links.
func LoadMeta(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapErr(KindFilesystem, "load meta", path, err)
	}

	var lm legacyMeta
	if err := json.Unmarshal(data, &lm); err != nil {
		return nil, wrapErr(KindFilesystem, "parse meta", path, err)
	}

	m := lm.Meta
	if lm.LinkedTo != nil && *lm.LinkedTo != "" {
		rule := LinkRule{Dest: *lm.LinkedTo}
		if lm.LinkedPath != nil {
			rule.Path = *lm.LinkedPath
		}
		if !containsDest(m.Links, rule.Dest) {
			m.Links = append(m.Links, rule)
		}
	}
	applyDefaults(&m)
	return &m, nil
}

func containsDest(links []LinkRule, dest string) bool {
	for _, l := range links {
		if l.Dest == dest {
			return true
		}
	}
	return false
}

// applyDefaults fills zero-value slices so callers never have to nil-check
// Links/VersionedLinks/Releases.
func applyDefaults(m *Meta) {
	if m.Links == nil {
		m.Links = []LinkRule{}
	}
	if m.VersionedLinks == nil {
		m.VersionedLinks = []VersionedLink{}
	}
	if m.Releases == nil {
		m.Releases = []Release{}
	}
}

// SaveMeta serializes m to pretty JSON and atomically replaces the file at
// path: write to path+".tmp", then rename over path. Rename is the
// atomicity primitive — a concurrent reader sees either the old file or the
// new one, never a partial write.
func SaveMeta(path string, m *Meta) error {
	applyDefaults(m)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return wrapErr(KindFilesystem, "marshal meta", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return wrapErr(KindFilesystem, "create package directory", filepath.Dir(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return wrapErr(KindFilesystem, "write meta temp file", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return wrapErr(KindFilesystem, "rename meta into place", path, err)
	}
	return nil
}

// MergeMeta combines an existing Meta with a freshly-fetched one for the
// same repo, per §4.5: scalar fields replace only if fetched is newer;
// releases union by tag and re-sort; current_version/links/versioned_links
// are preserved from existing. changed reports whether anything actually
// moved, so callers know whether to rewrite the file.
func MergeMeta(existing, fetched Meta) (merged Meta, changed bool) {
	merged = existing

	if fetched.UpdatedAt.After(existing.UpdatedAt) {
		if merged.Description != fetched.Description ||
			merged.Homepage != fetched.Homepage ||
			merged.License != fetched.License ||
			!merged.UpdatedAt.Equal(fetched.UpdatedAt) {
			changed = true
		}
		merged.Description = fetched.Description
		merged.Homepage = fetched.Homepage
		merged.License = fetched.License
		merged.UpdatedAt = fetched.UpdatedAt
	}

	unioned := dedupeReleasesByTag(existing.Releases, fetched.Releases)
	sortReleases(unioned)
	if !releasesEqual(existing.Releases, unioned) {
		changed = true
	}
	merged.Releases = unioned

	applyDefaults(&merged)
	return merged, changed
}

func releasesEqual(a, b []Release) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Tag != b[i].Tag {
			return false
		}
	}
	return true
}

// FindAllPackages walks root two levels deep (owner/repo) and returns the
// package directory for every entry that contains a meta.json. Non-directory
// entries and directories without a manifest are skipped.
func FindAllPackages(root string) ([]string, error) {
	var out []string

	ownerEntries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(KindFilesystem, "list install root", root, err)
	}

	for _, owner := range ownerEntries {
		if !owner.IsDir() {
			continue
		}
		ownerDir := filepath.Join(root, owner.Name())

		repoEntries, err := os.ReadDir(ownerDir)
		if err != nil {
			continue
		}
		for _, repo := range repoEntries {
			if !repo.IsDir() {
				continue
			}
			repoDir := filepath.Join(ownerDir, repo.Name())
			if _, err := os.Stat(filepath.Join(repoDir, ManifestFilename)); err == nil {
				out = append(out, repoDir)
			}
		}
	}
	return out, nil
}

// PackageDir returns <root>/<owner>/<repo>.
func PackageDir(root string, id RepoId) string {
	return filepath.Join(root, id.Owner, id.Repo)
}

// MetaPath returns <root>/<owner>/<repo>/meta.json.
func MetaPath(root string, id RepoId) string {
	return filepath.Join(PackageDir(root, id), ManifestFilename)
}

// EnsureMeta loads the package's meta.json if present, or builds a fresh
// Meta (seeded with repoInfo, the repo id, and apiURL) when this is the
// first install of the repo.
func EnsureMeta(root string, id RepoId, apiURL string) (*Meta, error) {
	path := MetaPath(root, id)
	if _, err := os.Stat(path); err == nil {
		return LoadMeta(path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, wrapErr(KindFilesystem, "stat meta", path, err)
	}

	m := &Meta{
		Name:   id.String(),
		APIURL: apiURL,
	}
	applyDefaults(m)
	return m, nil
}

// ValidateName reports whether m.Name equals the canonical "owner/repo"
// form for the directory it was loaded from, per invariant 1.
func ValidateName(m *Meta, id RepoId) error {
	if m.Name != id.String() {
		return wrapErr(KindFilesystem, "validate meta name", m.Name,
			fmt.Errorf("meta name %q does not match directory %q", m.Name, id.String()))
	}
	return nil
}
