package ghri

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// compareTags orders two tags the way invariant 3 wants when neither side
// has a published_at timestamp to fall back on: semver-descending when both
// parse as semver, else plain lexicographic-descending (covers tags like
// "nightly" or "20240101" that are not valid semver). Returns >0 when a
// should sort before b, <0 for the reverse, 0 for equal.
func compareTags(a, b string) int {
	av, aerr := semver.NewVersion(normalizedTag(a))
	bv, berr := semver.NewVersion(normalizedTag(b))
	if aerr == nil && berr == nil {
		return av.Compare(bv)
	}
	return strings.Compare(a, b)
}

// tagsEqual reports whether two tags name the same release once a single
// leading 'v' is stripped from each, per §4.6's "with or without its
// leading v" matching rule.
func tagsEqual(a, b string) bool {
	return strings.EqualFold(normalizedTag(a), normalizedTag(b))
}

// ResolveLatestStable returns the first non-prerelease release in invariant
// order, or ok=false when there is none.
func ResolveLatestStable(releases []Release) (Release, bool) {
	sorted := append([]Release(nil), releases...)
	sortReleases(sorted)
	for _, r := range sorted {
		if !r.Prerelease {
			return r, true
		}
	}
	return Release{}, false
}

// ResolveLatestIncludingPre returns the first release in invariant order
// regardless of prerelease status.
func ResolveLatestIncludingPre(releases []Release) (Release, bool) {
	sorted := append([]Release(nil), releases...)
	sortReleases(sorted)
	if len(sorted) == 0 {
		return Release{}, false
	}
	return sorted[0], true
}

// ResolveExact finds the release whose tag matches want, with or without a
// leading 'v'. When more than one candidate remains (which should not
// normally happen — tags are expected unique — but duplicate releases can
// appear mid-merge) it prefers the one whose Prerelease flag matches
// preferPre, then the first in invariant order.
func ResolveExact(releases []Release, want string, preferPre bool) (Release, bool) {
	var candidates []Release
	for _, r := range releases {
		if tagsEqual(r.Tag, want) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return Release{}, false
	}
	sortReleases(candidates)
	for _, r := range candidates {
		if r.Prerelease == preferPre {
			return r, true
		}
	}
	return candidates[0], true
}

// ResolveUpdate returns the latest release (prerelease-included only when
// includePre is set) that sorts strictly ahead of current in invariant
// order, or ok=false when nothing newer exists. An empty current (no
// version installed yet) matches nothing, so the first eligible release in
// the list is returned.
func ResolveUpdate(releases []Release, current string, includePre bool) (Release, bool) {
	sorted := append([]Release(nil), releases...)
	sortReleases(sorted)

	currentIdx := -1
	if current != "" {
		for i, r := range sorted {
			if tagsEqual(r.Tag, current) {
				currentIdx = i
				break
			}
		}
	}

	for i, r := range sorted {
		if currentIdx >= 0 && i >= currentIdx {
			break
		}
		if r.Prerelease && !includePre {
			continue
		}
		return r, true
	}
	return Release{}, false
}
