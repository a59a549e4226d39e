package ghri

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archiver/v3"
)

// ArchivePort extracts a downloaded archive into destDir, sniffing the
// format from filename's suffix. Callers are responsible for registering
// destDir (and any temp directory they stage into first) with a Registry.
type ArchivePort interface {
	Extract(archivePath, destDir string) error
}

// defaultArchive is the production ArchivePort, backed by
// github.com/mholt/archiver/v3, which already preserves Unix mode bits from
// tar headers and ZIP extra fields during extraction.
type defaultArchive struct{}

// NewArchivePort returns the production ArchivePort.
func NewArchivePort() ArchivePort { return defaultArchive{} }

// supportedSuffixes lists the archive formats §6 names. Their order does not
// matter: sniffFormat only reports whether any of them matches.
var supportedSuffixes = []string{
	".tar.gz", ".tgz",
	".tar.bz2", ".tbz2",
	".tar.xz", ".txz",
	".tar",
	".zip",
}

// sniffFormat reports whether name's suffix (case-insensitive) names a
// supported archive format.
func sniffFormat(name string) (ok bool) {
	lower := strings.ToLower(name)
	for _, suffix := range supportedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func (defaultArchive) Extract(archivePath, destDir string) error {
	if !sniffFormat(archivePath) {
		return wrapErr(KindArchive, "sniff archive format", archivePath,
			fmt.Errorf("unrecognized archive suffix"))
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return wrapErr(KindFilesystem, "create extraction directory", destDir, err)
	}
	if err := archiver.Unarchive(archivePath, destDir); err != nil {
		return wrapErr(KindArchive, "extract archive", archivePath, err)
	}
	if empty, err := dirIsEmpty(destDir); err == nil && empty {
		return wrapErr(KindArchive, "extract archive", archivePath,
			fmt.Errorf("archive produced no files"))
	}
	return nil
}

func dirIsEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// FlattenSingleTopLevelDir implements §4.8's Extract step: if tempDir
// contains exactly one child and that child is a directory, its contents
// (not the directory itself) are moved into targetDir — stripping the
// archive's common top-level directory (e.g. "repo-v1.0.0/"). Otherwise
// every child of tempDir is moved into targetDir directly.
func FlattenSingleTopLevelDir(tempDir, targetDir string) error {
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return wrapErr(KindFilesystem, "list extracted contents", tempDir, err)
	}

	sourceDir := tempDir
	if len(entries) == 1 && entries[0].IsDir() {
		sourceDir = filepath.Join(tempDir, entries[0].Name())
		entries, err = os.ReadDir(sourceDir)
		if err != nil {
			return wrapErr(KindFilesystem, "list archive top-level directory", sourceDir, err)
		}
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return wrapErr(KindFilesystem, "create target directory", targetDir, err)
	}

	for _, entry := range entries {
		src := filepath.Join(sourceDir, entry.Name())
		dst := filepath.Join(targetDir, entry.Name())
		if err := os.Rename(src, dst); err != nil {
			return wrapErr(KindFilesystem, "move extracted entry into target", dst, err)
		}
	}
	return nil
}

// singleFileChild reports whether dir contains exactly one child and that
// child is a regular file, per §4.7's link-target determination rule.
func singleFileChild(dir string) (name string, ok bool, err error) {
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		return "", false, wrapErr(KindFilesystem, "list version directory", dir, readErr)
	}
	if len(entries) != 1 {
		return "", false, nil
	}
	info, infoErr := entries[0].Info()
	if infoErr != nil {
		return "", false, wrapErr(KindFilesystem, "stat version directory entry", dir, infoErr)
	}
	if info.Mode().Type() != fs.FileMode(0) {
		// Not a regular file (it's a directory, symlink, etc).
		return "", false, nil
	}
	return entries[0].Name(), true, nil
}
