package ghri

import (
	"sort"
	"strings"
	"time"
)

// Asset is a single downloadable file attached to a Release.
type Asset struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

// Release is the normalized form of a provider release, independent of
// whether it came from GitHub, GitLab, or Gitee. Tag is the authoritative
// identifier — Name is purely cosmetic.
type Release struct {
	Tag         string     `json:"tag"`
	Name        string     `json:"name,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Prerelease  bool       `json:"prerelease"`
	TarballURL  string     `json:"tarball_url"`
	Assets      []Asset    `json:"assets,omitempty"`
}

// RepoMetadata is the normalized, provider-independent subset of a
// repository's descriptive metadata.
type RepoMetadata struct {
	Description *string    `json:"description,omitempty"`
	Homepage    *string    `json:"homepage,omitempty"`
	License     *string    `json:"license,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// normalizedTag strips a single leading 'v' or 'V' for comparison purposes,
// per §4.6 ("matches the stored tag with or without its leading v").
func normalizedTag(tag string) string {
	if len(tag) > 0 && (tag[0] == 'v' || tag[0] == 'V') {
		return tag[1:]
	}
	return tag
}

// less implements invariant 3's ordering: published_at descending when both
// sides have it, else lexicographic semver-descending on tag (delegated to
// the version resolver's comparator so there is exactly one notion of
// "newer" in the codebase), with ties broken by tag string.
func (r Release) less(other Release) bool {
	if r.PublishedAt != nil && other.PublishedAt != nil {
		if !r.PublishedAt.Equal(*other.PublishedAt) {
			return r.PublishedAt.After(*other.PublishedAt)
		}
	} else if r.PublishedAt != nil || other.PublishedAt != nil {
		// One side has a timestamp and the other doesn't: the timestamped
		// one is considered more authoritative and sorts first.
		return r.PublishedAt != nil
	}

	if c := compareTags(r.Tag, other.Tag); c != 0 {
		return c > 0
	}
	return r.Tag < other.Tag
}

// sortReleases orders releases in place per invariant 3 (most recent
// first), using a stable sort so equally-ordered entries keep their
// original relative position across repeated merges.
func sortReleases(releases []Release) {
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].less(releases[j])
	})
}

// dedupeReleasesByTag unions two release lists by tag, keeping the richer
// entry where both sides have the same tag. "Richer" means: prefer the one
// with a non-nil PublishedAt, then the one with more assets, then the
// existing (first-seen) entry — deterministic for a given argument order.
func dedupeReleasesByTag(existing, fetched []Release) []Release {
	byTag := make(map[string]Release, len(existing)+len(fetched))
	order := make([]string, 0, len(existing)+len(fetched))

	add := func(r Release) {
		key := strings.ToLower(normalizedTag(r.Tag))
		if prior, ok := byTag[key]; ok {
			byTag[key] = richerRelease(prior, r)
			return
		}
		byTag[key] = r
		order = append(order, key)
	}

	for _, r := range existing {
		add(r)
	}
	for _, r := range fetched {
		add(r)
	}

	out := make([]Release, 0, len(order))
	for _, key := range order {
		out = append(out, byTag[key])
	}
	return out
}

func richerRelease(a, b Release) Release {
	if a.PublishedAt == nil && b.PublishedAt != nil {
		return b
	}
	if a.PublishedAt != nil && b.PublishedAt == nil {
		return a
	}
	if len(b.Assets) > len(a.Assets) {
		return b
	}
	return a
}
