package ghri

import (
	"os"
	"path/filepath"
	"testing"
)

func setupPackageForRemoval(t *testing.T, root string, id RepoId, current string, extraVersions ...string) *Meta {
	t.Helper()
	packageDir := PackageDir(root, id)
	versionDir := filepath.Join(packageDir, current)
	mustMkdirAll(t, versionDir)
	mustWriteFile(t, filepath.Join(versionDir, "ghri"), "bin")
	if err := ActivateCurrent(packageDir, current); err != nil {
		t.Fatal(err)
	}
	for _, v := range extraVersions {
		mustMkdirAll(t, filepath.Join(packageDir, v))
	}

	m := &Meta{Name: id.String(), APIURL: DefaultAPIURL, CurrentVersion: current, Releases: []Release{{Tag: current}}}
	if err := SaveMeta(MetaPath(root, id), m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestRemovePackageDeletesDirectoryAndEmptyOwner(t *testing.T) {
	root := t.TempDir()
	id := RepoId{Owner: "owner", Repo: "repo"}
	setupPackageForRemoval(t, root, id, "v1.0.0")

	if err := RemovePackage(root, id); err != nil {
		t.Fatalf("RemovePackage: %v", err)
	}
	if _, err := os.Stat(PackageDir(root, id)); !os.IsNotExist(err) {
		t.Errorf("expected package directory to be gone")
	}
	if _, err := os.Stat(filepath.Join(root, "owner")); !os.IsNotExist(err) {
		t.Errorf("expected the now-empty owner directory to be removed")
	}
}

func TestRemovePackageKeepsOwnerDirWhenSiblingRemains(t *testing.T) {
	root := t.TempDir()
	id1 := RepoId{Owner: "owner", Repo: "repo1"}
	id2 := RepoId{Owner: "owner", Repo: "repo2"}
	setupPackageForRemoval(t, root, id1, "v1.0.0")
	setupPackageForRemoval(t, root, id2, "v1.0.0")

	if err := RemovePackage(root, id1); err != nil {
		t.Fatalf("RemovePackage: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "owner")); err != nil {
		t.Errorf("expected the owner directory to survive since repo2 remains: %v", err)
	}
}

func TestRemovePackageDoesNotUnlinkExternalTarget(t *testing.T) {
	root := t.TempDir()
	id := RepoId{Owner: "owner", Repo: "repo"}
	setupPackageForRemoval(t, root, id, "v1.0.0")

	outside := t.TempDir()
	userFile := filepath.Join(outside, "mine")
	mustWriteFile(t, userFile, "precious")
	externalLink := filepath.Join(outside, "unrelated-symlink")
	if err := os.Symlink(userFile, externalLink); err != nil {
		t.Fatal(err)
	}

	m, err := LoadMeta(MetaPath(root, id))
	if err != nil {
		t.Fatal(err)
	}
	m.Links = append(m.Links, LinkRule{Dest: externalLink})
	if err := SaveMeta(MetaPath(root, id), m); err != nil {
		t.Fatal(err)
	}

	if err := RemovePackage(root, id); err != nil {
		t.Fatalf("RemovePackage: %v", err)
	}
	if _, err := os.Lstat(externalLink); err != nil {
		t.Errorf("external-target link must survive package removal: %v", err)
	}
}

func TestRemoveVersionRefusesActiveWithoutForce(t *testing.T) {
	root := t.TempDir()
	id := RepoId{Owner: "owner", Repo: "repo"}
	setupPackageForRemoval(t, root, id, "v1.0.0")

	_, err := RemoveVersion(root, id, "v1.0.0", false)
	if err == nil {
		t.Fatalf("expected an error removing the active version without --force")
	}
	if KindOf(err) != KindPrecondition {
		t.Errorf("KindOf(err) = %v, want KindPrecondition", KindOf(err))
	}
}

func TestRemoveVersionForceClearsCurrent(t *testing.T) {
	root := t.TempDir()
	id := RepoId{Owner: "owner", Repo: "repo"}
	setupPackageForRemoval(t, root, id, "v1.0.0")

	noVersionActive, err := RemoveVersion(root, id, "v1.0.0", true)
	if err != nil {
		t.Fatalf("RemoveVersion: %v", err)
	}
	if !noVersionActive {
		t.Errorf("expected noVersionActive=true when removing the only (active) version")
	}

	m, err := LoadMeta(MetaPath(root, id))
	if err != nil {
		t.Fatal(err)
	}
	if m.CurrentVersion != "" {
		t.Errorf("expected CurrentVersion to be cleared, got %q", m.CurrentVersion)
	}
	if _, err := os.Lstat(CurrentLinkPath(PackageDir(root, id))); !os.IsNotExist(err) {
		t.Errorf("expected the current symlink to be removed")
	}
}

func TestRemoveVersionNonActiveDoesNotTouchCurrent(t *testing.T) {
	root := t.TempDir()
	id := RepoId{Owner: "owner", Repo: "repo"}
	setupPackageForRemoval(t, root, id, "v2.0.0", "v1.0.0")

	noVersionActive, err := RemoveVersion(root, id, "v1.0.0", false)
	if err != nil {
		t.Fatalf("RemoveVersion: %v", err)
	}
	if noVersionActive {
		t.Errorf("removing a non-active version must not report noVersionActive")
	}

	packageDir := PackageDir(root, id)
	if _, err := os.Stat(filepath.Join(packageDir, "v1.0.0")); !os.IsNotExist(err) {
		t.Errorf("expected v1.0.0's directory to be gone")
	}
	target, err := os.Readlink(CurrentLinkPath(packageDir))
	if err != nil || target != "v2.0.0" {
		t.Errorf("current must still point at v2.0.0, got %q, err %v", target, err)
	}
}
