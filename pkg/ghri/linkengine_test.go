package ghri

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetermineLinkTargetSingleFile(t *testing.T) {
	versionDir := t.TempDir()
	mustWriteFile(t, filepath.Join(versionDir, "ghri"), "binary")

	got, err := DetermineLinkTarget(versionDir, "")
	if err != nil {
		t.Fatalf("DetermineLinkTarget: %v", err)
	}
	if got != filepath.Join(versionDir, "ghri") {
		t.Errorf("expected single-file descent, got %q", got)
	}
}

func TestDetermineLinkTargetSingleSubdirStaysAtVersionDir(t *testing.T) {
	versionDir := t.TempDir()
	mustMkdirAll(t, filepath.Join(versionDir, "bin"))

	got, err := DetermineLinkTarget(versionDir, "")
	if err != nil {
		t.Fatalf("DetermineLinkTarget: %v", err)
	}
	if got != versionDir {
		t.Errorf("a lone subdirectory must not cause descent, got %q, want %q", got, versionDir)
	}
}

func TestDetermineLinkTargetExplicitPath(t *testing.T) {
	versionDir := t.TempDir()
	mustMkdirAll(t, filepath.Join(versionDir, "bin"))
	mustWriteFile(t, filepath.Join(versionDir, "bin", "tool"), "binary")

	got, err := DetermineLinkTarget(versionDir, "bin/tool")
	if err != nil {
		t.Fatalf("DetermineLinkTarget: %v", err)
	}
	if got != filepath.Join(versionDir, "bin", "tool") {
		t.Errorf("got %q", got)
	}

	if _, err := DetermineLinkTarget(versionDir, "bin/missing"); err == nil {
		t.Errorf("expected an error for a rulePath that does not exist")
	}
}

func TestEvaluateLinkStatus(t *testing.T) {
	root := t.TempDir()
	packageDir := filepath.Join(root, "owner", "repo")
	versionDir := filepath.Join(packageDir, "v1.0.0")
	mustMkdirAll(t, versionDir)

	t.Run("not exists", func(t *testing.T) {
		dest := filepath.Join(root, "bin", "ghri")
		if got := EvaluateLinkStatus(dest, versionDir); got != LinkNotExists {
			t.Errorf("got %v, want LinkNotExists", got)
		}
	})

	t.Run("not a symlink", func(t *testing.T) {
		dest := filepath.Join(root, "plainfile")
		mustWriteFile(t, dest, "x")
		if got := EvaluateLinkStatus(dest, versionDir); got != LinkNotSymlink {
			t.Errorf("got %v, want LinkNotSymlink", got)
		}
	})

	t.Run("valid under prefix", func(t *testing.T) {
		dest := filepath.Join(root, "validlink")
		if err := os.Symlink(versionDir, dest); err != nil {
			t.Fatal(err)
		}
		if got := EvaluateLinkStatus(dest, versionDir); got != LinkValid {
			t.Errorf("got %v, want LinkValid", got)
		}
	})

	t.Run("wrong target outside prefix", func(t *testing.T) {
		outside := t.TempDir()
		dest := filepath.Join(root, "externallink")
		if err := os.Symlink(outside, dest); err != nil {
			t.Fatal(err)
		}
		if got := EvaluateLinkStatus(dest, versionDir); got != LinkWrongTarget {
			t.Errorf("got %v, want LinkWrongTarget", got)
		}
	})

	t.Run("dangling relative symlink resolves lexically but outside prefix", func(t *testing.T) {
		dest := filepath.Join(root, "brokenlink")
		if err := os.Symlink("./nonexistent-target-xyz", dest); err != nil {
			t.Fatal(err)
		}
		// resolveOneHop is purely lexical (one hop, no existence check), so a
		// dangling target still resolves to a path; it just lands outside
		// versionDir.
		got := EvaluateLinkStatus(dest, versionDir)
		if got != LinkWrongTarget {
			t.Errorf("got %v, want LinkWrongTarget for a dangling link outside the prefix", got)
		}
	})
}

func TestCreateOrUpdateLinkSkipsNonSymlinkDestination(t *testing.T) {
	root := t.TempDir()
	versionDir := filepath.Join(root, "v1.0.0")
	mustMkdirAll(t, versionDir)
	mustWriteFile(t, filepath.Join(versionDir, "ghri"), "bin")

	dest := filepath.Join(root, "occupied")
	mustWriteFile(t, dest, "user data")

	skipped, err := CreateOrUpdateLink(dest, versionDir, "")
	if err != nil {
		t.Fatalf("CreateOrUpdateLink: %v", err)
	}
	if !skipped {
		t.Errorf("expected skipped=true for a non-symlink occupant")
	}
	data, readErr := os.ReadFile(dest)
	if readErr != nil || string(data) != "user data" {
		t.Errorf("user file must not be overwritten, got %q, err %v", data, readErr)
	}
}

func TestCreateOrUpdateLinkCreatesRelativeSymlink(t *testing.T) {
	root := t.TempDir()
	versionDir := filepath.Join(root, "owner", "repo", "v1.0.0")
	mustMkdirAll(t, versionDir)
	mustWriteFile(t, filepath.Join(versionDir, "ghri"), "bin")

	dest := filepath.Join(root, "owner", "repo", "current-bin")
	skipped, err := CreateOrUpdateLink(dest, versionDir, "")
	if err != nil {
		t.Fatalf("CreateOrUpdateLink: %v", err)
	}
	if skipped {
		t.Fatalf("expected the link to be created, not skipped")
	}
	if value, err := os.Readlink(dest); err != nil || filepath.IsAbs(value) {
		t.Errorf("expected a relative symlink value, got %q, err %v", value, err)
	}

	status := EvaluateLinkStatus(dest, versionDir)
	if status != LinkValid {
		t.Errorf("created link should evaluate as valid, got %v", status)
	}
}

func TestCreateOrUpdateLinkReplacesStaleSymlink(t *testing.T) {
	root := t.TempDir()
	oldVersionDir := filepath.Join(root, "v1.0.0")
	newVersionDir := filepath.Join(root, "v2.0.0")
	mustMkdirAll(t, oldVersionDir)
	mustMkdirAll(t, newVersionDir)
	mustWriteFile(t, filepath.Join(oldVersionDir, "ghri"), "old")
	mustWriteFile(t, filepath.Join(newVersionDir, "ghri"), "new")

	dest := filepath.Join(root, "bin")
	if _, err := CreateOrUpdateLink(dest, oldVersionDir, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateOrUpdateLink(dest, newVersionDir, ""); err != nil {
		t.Fatal(err)
	}
	if EvaluateLinkStatus(dest, newVersionDir) != LinkValid {
		t.Errorf("link should now point under the new version directory")
	}
}

func TestSafeRemoveLinkNeverUnlinksExternalTarget(t *testing.T) {
	root := t.TempDir()
	packageDir := filepath.Join(root, "owner", "repo")
	mustMkdirAll(t, packageDir)

	outside := t.TempDir()
	userFile := filepath.Join(outside, "important")
	mustWriteFile(t, userFile, "do not delete me")

	dest := filepath.Join(root, "unrelated-link")
	if err := os.Symlink(userFile, dest); err != nil {
		t.Fatal(err)
	}

	result, err := SafeRemoveLink(dest, packageDir)
	if err != nil {
		t.Fatalf("SafeRemoveLink: %v", err)
	}
	if result != RemoveExternalTarget {
		t.Fatalf("got %v, want RemoveExternalTarget", result)
	}
	if _, err := os.Lstat(dest); err != nil {
		t.Errorf("external-target symlink must be left untouched, but it's gone: %v", err)
	}
}

func TestSafeRemoveLinkRemovesValidLink(t *testing.T) {
	root := t.TempDir()
	versionDir := filepath.Join(root, "v1.0.0")
	mustMkdirAll(t, versionDir)

	dest := filepath.Join(root, "link")
	if err := os.Symlink(versionDir, dest); err != nil {
		t.Fatal(err)
	}

	result, err := SafeRemoveLink(dest, versionDir)
	if err != nil {
		t.Fatalf("SafeRemoveLink: %v", err)
	}
	if result != RemoveRemoved {
		t.Fatalf("got %v, want RemoveRemoved", result)
	}
	if _, err := os.Lstat(dest); !os.IsNotExist(err) {
		t.Errorf("expected the link to be gone")
	}
}

func TestActivateCurrentCreatesUpdatesAndSkips(t *testing.T) {
	packageDir := t.TempDir()
	if err := ActivateCurrent(packageDir, "v1.0.0"); err != nil {
		t.Fatalf("create: %v", err)
	}
	link := CurrentLinkPath(packageDir)
	target, err := os.Readlink(link)
	if err != nil || target != "v1.0.0" {
		t.Fatalf("expected current -> v1.0.0, got %q, err %v", target, err)
	}

	// Same tag again: must be a no-op (no error, link unchanged).
	if err := ActivateCurrent(packageDir, "v1.0.0"); err != nil {
		t.Fatalf("no-op activate: %v", err)
	}

	// Different tag: must repoint.
	if err := ActivateCurrent(packageDir, "v2.0.0"); err != nil {
		t.Fatalf("repoint: %v", err)
	}
	target, err = os.Readlink(link)
	if err != nil || target != "v2.0.0" {
		t.Fatalf("expected current -> v2.0.0 after repoint, got %q, err %v", target, err)
	}
}

func TestApplyFloatingLinksCollectsWarningsWithoutFailing(t *testing.T) {
	root := t.TempDir()
	versionDir := filepath.Join(root, "v1.0.0")
	mustMkdirAll(t, versionDir)
	mustWriteFile(t, filepath.Join(versionDir, "ghri"), "bin")

	occupied := filepath.Join(root, "occupied")
	mustWriteFile(t, occupied, "user data")

	links := []LinkRule{
		{Dest: filepath.Join(root, "good-link")},
		{Dest: occupied},
	}
	warnings := ApplyFloatingLinks(links, versionDir)
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one warning for the occupied destination, got %v", warnings)
	}
}
