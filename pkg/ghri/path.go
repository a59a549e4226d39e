package ghri

import "strings"

// splitComponents breaks p into its '/'-separated components, recording
// whether p was absolute. Empty components (from a leading '/' or repeated
// separators) are dropped except that a leading empty component signals an
// absolute path.
func splitComponents(p string) (components []string, absolute bool) {
	p = strings.ReplaceAll(p, "\\", "/")
	absolute = strings.HasPrefix(p, "/")
	for _, part := range strings.Split(p, "/") {
		if part == "" || part == "." {
			continue
		}
		components = append(components, part)
	}
	return components, absolute
}

// normalize performs purely lexical cleanup of p: '.' components are
// dropped, and '..' pops the preceding component. At an absolute root a
// leading '..' has nothing to pop and is discarded; in a relative path a
// leading '..' is retained since it still carries meaning relative to the
// unknown base.
func normalize(p string) string {
	parts, absolute := splitComponents(p)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == ".." {
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
				continue
			}
			if absolute {
				continue
			}
			out = append(out, "..")
			continue
		}
		out = append(out, part)
	}
	if absolute {
		return "/" + strings.Join(out, "/")
	}
	if len(out) == 0 {
		return "."
	}
	return strings.Join(out, "/")
}

// isUnder reports whether normalize(path) lies within normalize(dir),
// rejecting traversal sequences and sibling-prefix collisions. A directory
// is under itself.
func isUnder(p, dir string) bool {
	pComponents, pAbs := splitComponents(normalize(p))
	dComponents, dAbs := splitComponents(normalize(dir))
	if pAbs != dAbs {
		return false
	}
	if len(dComponents) > len(pComponents) {
		return false
	}
	for i, d := range dComponents {
		if pComponents[i] != d {
			return false
		}
	}
	return true
}

// relativeFrom computes the shortest lexical path from fromDir to toPath,
// using ".." as needed. It returns ok=false when the two paths do not share
// an absolute/relative "shape" (one normalized absolute, the other not) —
// the Go standard library's equivalent, filepath.Rel, additionally refuses
// to cross volume boundaries on Windows; this function has no notion of
// volumes and instead only refuses when the shapes disagree.
func relativeFrom(fromDir, toPath string) (string, bool) {
	fromParts, fromAbs := splitComponents(normalize(fromDir))
	toParts, toAbs := splitComponents(normalize(toPath))
	if fromAbs != toAbs {
		return "", false
	}

	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}

	var segments []string
	for i := common; i < len(fromParts); i++ {
		segments = append(segments, "..")
	}
	segments = append(segments, toParts[common:]...)

	if len(segments) == 0 {
		return ".", true
	}
	return strings.Join(segments, "/"), true
}

// resolveRelative returns p unchanged if it is absolute, otherwise joins it
// onto baseDir and normalizes the result.
func resolveRelative(baseDir, p string) string {
	parts, absolute := splitComponents(p)
	if absolute {
		return p
	}
	joined := strings.TrimRight(baseDir, "/") + "/" + strings.Join(parts, "/")
	return normalize(joined)
}
