package ghri

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LinkStatus is the state of a declared link destination relative to an
// expected prefix, per §4.7.
type LinkStatus int

const (
	LinkValid LinkStatus = iota
	LinkNotExists
	LinkWrongTarget
	LinkNotSymlink
	LinkUnresolvable
)

func (s LinkStatus) String() string {
	switch s {
	case LinkValid:
		return "valid"
	case LinkNotExists:
		return "not-exists"
	case LinkWrongTarget:
		return "wrong-target"
	case LinkNotSymlink:
		return "not-symlink"
	case LinkUnresolvable:
		return "unresolvable"
	default:
		return "unknown"
	}
}

// RemoveResult is the outcome of a SafeRemoveLink call, per §4.7.
type RemoveResult int

const (
	RemoveRemoved RemoveResult = iota
	RemoveNotExists
	RemoveNotSymlink
	RemoveExternalTarget
	RemoveUnresolvable
)

func (r RemoveResult) String() string {
	switch r {
	case RemoveRemoved:
		return "removed"
	case RemoveNotExists:
		return "not-exists"
	case RemoveNotSymlink:
		return "not-symlink"
	case RemoveExternalTarget:
		return "external-target"
	case RemoveUnresolvable:
		return "unresolvable"
	default:
		return "unknown"
	}
}

// DetermineLinkTarget implements §4.7's link-target determination: if
// rulePath is set, the target is versionDir/rulePath (which must exist); if
// versionDir contains exactly one child and that child is a regular file,
// the target is that file; otherwise the target is versionDir itself.
//
// This asymmetry (a lone subdirectory leaves the target at versionDir, a
// lone file descends into it) is intentional — it distinguishes "this
// release ships one binary" from "this release ships one top-level
// directory of stuff" — and should stay documented on the link command's
// help text (§9).
func DetermineLinkTarget(versionDir, rulePath string) (string, error) {
	if rulePath != "" {
		target := filepath.Join(versionDir, rulePath)
		if _, err := os.Stat(target); err != nil {
			return "", wrapErr(KindFilesystem, "resolve link path", target, err)
		}
		return target, nil
	}

	name, ok, err := singleFileChild(versionDir)
	if err != nil {
		return "", err
	}
	if ok {
		return filepath.Join(versionDir, name), nil
	}
	return versionDir, nil
}

// EvaluateLinkStatus computes the LinkStatus of dest relative to
// expectedPrefix, per §4.7: non-existence, a non-symlink occupant,
// unresolvable one-hop resolution, and finally containment under
// expectedPrefix are each distinguished.
func EvaluateLinkStatus(dest, expectedPrefix string) LinkStatus {
	fi, lstatErr := os.Lstat(dest)
	if errors.Is(lstatErr, os.ErrNotExist) {
		return LinkNotExists
	}
	if lstatErr != nil {
		return LinkUnresolvable
	}
	if fi.Mode()&os.ModeSymlink == 0 {
		return LinkNotSymlink
	}

	resolved, err := resolveOneHop(dest)
	if err != nil {
		return LinkUnresolvable
	}

	absResolved, err := canonicalize(resolved)
	if err != nil {
		return LinkUnresolvable
	}
	absPrefix, err := canonicalize(expectedPrefix)
	if err != nil {
		return LinkUnresolvable
	}

	if isUnder(absResolved, absPrefix) {
		return LinkValid
	}
	return LinkWrongTarget
}

// resolveOneHop reads the symlink at dest and resolves its target against
// dest's directory if the target is relative — a single hop, not a
// recursive canonicalization (§4.7 is explicit that this is "one hop, not
// recursive canonicalize").
func resolveOneHop(dest string) (string, error) {
	target, err := os.Readlink(dest)
	if err != nil {
		return "", err
	}
	return resolveRelative(filepath.Dir(dest), target), nil
}

// canonicalize makes p absolute (it is already lexically normalized by
// resolveRelative/normalize upstream) without resolving further symlinks —
// this mirrors the "canonicalize both sides" step of §4.7, which operates
// on the one-hop-resolved path, not a fully recursive realpath.
func canonicalize(p string) (string, error) {
	if filepath.IsAbs(p) {
		return normalize(p), nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return normalize(abs), nil
}

// CreateOrUpdateLink implements §4.7's link creation/update algorithm for a
// single rule: determine the target from versionDir, then create/replace
// the symlink at dest. A dest that exists and is not a symlink is skipped
// with a warning, never overwritten (the user's file is sacrosanct).
func CreateOrUpdateLink(dest, versionDir, rulePath string) (skipped bool, err error) {
	target, err := DetermineLinkTarget(versionDir, rulePath)
	if err != nil {
		return false, err
	}

	fi, lstatErr := os.Lstat(dest)
	switch {
	case errors.Is(lstatErr, os.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return false, wrapErr(KindFilesystem, "create link parent directory", filepath.Dir(dest), err)
		}
	case lstatErr != nil:
		return false, wrapErr(KindFilesystem, "stat link destination", dest, lstatErr)
	case fi.Mode()&os.ModeSymlink != 0:
		if err := os.Remove(dest); err != nil {
			return false, wrapErr(KindFilesystem, "remove existing symlink", dest, err)
		}
	default:
		return true, nil
	}

	rel, ok := relativeFrom(filepath.Dir(dest), target)
	linkValue := target
	if ok {
		linkValue = rel
	}
	if err := os.Symlink(linkValue, dest); err != nil {
		return false, wrapErr(KindFilesystem, "create symlink", dest, err)
	}
	return false, nil
}

// SafeRemoveLink implements §4.7's safe removal: it verifies dest is a
// symlink whose one-hop-resolved, canonicalized target lies under
// expectedPrefix before unlinking. An ExternalTarget result MUST NOT
// unlink — this is what prevents `remove` from deleting a user's unrelated
// symlink that happens to share a name.
func SafeRemoveLink(dest, expectedPrefix string) (RemoveResult, error) {
	status := EvaluateLinkStatus(dest, expectedPrefix)
	switch status {
	case LinkNotExists:
		return RemoveNotExists, nil
	case LinkNotSymlink:
		return RemoveNotSymlink, nil
	case LinkUnresolvable:
		return RemoveUnresolvable, nil
	case LinkWrongTarget:
		return RemoveExternalTarget, nil
	}

	if err := os.Remove(dest); err != nil {
		return RemoveUnresolvable, wrapErr(KindFilesystem, "remove link", dest, err)
	}
	return RemoveRemoved, nil
}

// CurrentLinkPath returns <packageDir>/current.
func CurrentLinkPath(packageDir string) string {
	return filepath.Join(packageDir, "current")
}

// ActivateCurrent implements §4.7's "current" symlink rule: if missing,
// create it; if it already points at tag, leave it; otherwise remove and
// recreate. The link is always written relative (just the tag name) so the
// package tree is relocatable.
func ActivateCurrent(packageDir, tag string) error {
	link := CurrentLinkPath(packageDir)

	existing, err := os.Readlink(link)
	if err == nil {
		if existing == tag {
			return nil
		}
		if err := os.Remove(link); err != nil {
			return wrapErr(KindFilesystem, "remove stale current symlink", link, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		if fi, statErr := os.Lstat(link); statErr == nil && fi.Mode()&os.ModeSymlink == 0 {
			return wrapErr(KindPrecondition, "activate current symlink", link,
				fmt.Errorf("current exists and is not a symlink"))
		}
	}

	if err := os.Symlink(tag, link); err != nil {
		return wrapErr(KindFilesystem, "create current symlink", link, err)
	}
	return nil
}

// ApplyFloatingLinks iterates meta.Links, applying CreateOrUpdateLink
// against versionDir for each. Failures are collected and returned as
// warnings, not as a fatal error — an already-committed version must
// remain reachable even if one external link rule can't be satisfied,
// per §4.7 and §7's propagation policy.
func ApplyFloatingLinks(links []LinkRule, versionDir string) (warnings []error) {
	for _, rule := range links {
		skipped, err := CreateOrUpdateLink(rule.Dest, versionDir, rule.Path)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("link %s: %w", rule.Dest, err))
			continue
		}
		if skipped {
			warnings = append(warnings, fmt.Errorf("link %s: destination exists and is not a symlink, skipped", rule.Dest))
		}
	}
	return warnings
}
