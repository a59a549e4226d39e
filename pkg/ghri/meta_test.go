package ghri

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveMetaThenLoadMeta(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "owner", "repo", ManifestFilename)

	in := &Meta{
		Name:           "owner/repo",
		APIURL:         DefaultAPIURL,
		Description:    "a test package",
		CurrentVersion: "v1.0.0",
		Releases:       []Release{{Tag: "v1.0.0"}},
	}
	if err := SaveMeta(path, in); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind after SaveMeta")
	}

	out, err := LoadMeta(path)
	if err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	if out.Name != in.Name || out.CurrentVersion != in.CurrentVersion {
		t.Errorf("LoadMeta round-trip mismatch: got %+v", out)
	}
	if out.Links == nil || out.VersionedLinks == nil {
		t.Errorf("LoadMeta should default nil slices to empty, got Links=%v VersionedLinks=%v", out.Links, out.VersionedLinks)
	}
}

func TestLoadMetaMigratesLegacyLinkedTo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestFilename)
	raw := `{"name":"owner/repo","linked_to":"/usr/local/bin/repo","linked_path":"v1.0.0/bin/repo"}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadMeta(path)
	if err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	if len(m.Links) != 1 || m.Links[0].Dest != "/usr/local/bin/repo" || m.Links[0].Path != "v1.0.0/bin/repo" {
		t.Errorf("legacy linked_to/linked_path not migrated into Links: %+v", m.Links)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(out), "linked_to") || strings.Contains(string(out), "linked_path") {
		t.Errorf("legacy fields must not be present on output: %s", out)
	}
}

func TestMergeMetaPreservesLinksAndCurrentVersion(t *testing.T) {
	existing := Meta{
		Name:           "owner/repo",
		CurrentVersion: "v1.0.0",
		Links:          []LinkRule{{Dest: "/usr/local/bin/repo"}},
		Releases:       []Release{{Tag: "v1.0.0"}},
		UpdatedAt:      time.Unix(100, 0),
	}
	fetched := Meta{
		Name:        "owner/repo",
		Description: "new description",
		UpdatedAt:   time.Unix(200, 0),
		Releases:    []Release{{Tag: "v1.0.0"}, {Tag: "v2.0.0"}},
	}

	merged, changed := MergeMeta(existing, fetched)
	if !changed {
		t.Errorf("expected changed=true when a new release and newer metadata arrive")
	}
	if merged.CurrentVersion != "v1.0.0" {
		t.Errorf("CurrentVersion must be preserved from existing, got %q", merged.CurrentVersion)
	}
	if len(merged.Links) != 1 {
		t.Errorf("Links must be preserved from existing, got %v", merged.Links)
	}
	if merged.Description != "new description" {
		t.Errorf("Description should adopt fetched when fetched is newer")
	}
	if len(merged.Releases) != 2 {
		t.Errorf("Releases should union by tag, got %d", len(merged.Releases))
	}
}

func TestMergeMetaNoChangeWhenFetchedNotNewer(t *testing.T) {
	existing := Meta{
		Name:      "owner/repo",
		UpdatedAt: time.Unix(200, 0),
		Releases:  []Release{{Tag: "v1.0.0"}},
	}
	fetched := Meta{
		Name:      "owner/repo",
		UpdatedAt: time.Unix(100, 0),
		Releases:  []Release{{Tag: "v1.0.0"}},
	}
	_, changed := MergeMeta(existing, fetched)
	if changed {
		t.Errorf("expected changed=false when fetched is not newer and releases are identical")
	}
}

func TestFindAllPackages(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "owner1", "repoA"))
	mustMkdirAll(t, filepath.Join(root, "owner1", "repoB"))
	mustMkdirAll(t, filepath.Join(root, "owner2", "repoC"))
	mustWriteFile(t, filepath.Join(root, "owner1", "repoA", ManifestFilename), "{}")
	mustWriteFile(t, filepath.Join(root, "owner2", "repoC", ManifestFilename), "{}")
	// owner1/repoB has no meta.json and must be skipped.

	got, err := FindAllPackages(root)
	if err != nil {
		t.Fatalf("FindAllPackages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 packages, got %d: %v", len(got), got)
	}
}

func TestFindAllPackagesMissingRoot(t *testing.T) {
	got, err := FindAllPackages(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("expected no error for a missing root, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil result for a missing root, got %v", got)
	}
}

func TestEnsureMetaFirstInstall(t *testing.T) {
	root := t.TempDir()
	id := RepoId{Owner: "owner", Repo: "repo"}
	m, err := EnsureMeta(root, id, DefaultAPIURL)
	if err != nil {
		t.Fatalf("EnsureMeta: %v", err)
	}
	if m.Name != "owner/repo" || m.APIURL != DefaultAPIURL {
		t.Errorf("fresh Meta not seeded correctly: %+v", m)
	}
	if len(m.Releases) != 0 {
		t.Errorf("fresh Meta must start with no releases")
	}
}

func TestValidateName(t *testing.T) {
	id := RepoId{Owner: "owner", Repo: "repo"}
	ok := &Meta{Name: "owner/repo"}
	if err := ValidateName(ok, id); err != nil {
		t.Errorf("ValidateName should accept a matching name: %v", err)
	}
	bad := &Meta{Name: "someone-else/repo"}
	if err := ValidateName(bad, id); err == nil {
		t.Errorf("ValidateName should reject a mismatched name")
	}
}

func mustMkdirAll(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
}

func mustWriteFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}
