package ghri

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// githubProvider implements Provider against the GitHub REST API (or an
// enterprise GitHub host sharing the same schema, since apiURL is
// configurable). It is the only Provider implementation this core ships;
// Kind() still reports the inferred kind of its own apiURL so a package
// pinned to a GitLab/Gitee host at least surfaces that mismatch instead of
// silently pretending to be GitHub (see §4.4, §9).
type githubProvider struct {
	apiURL string
	http   HTTPPort
}

func (g *githubProvider) Kind() ProviderKind { return InferProviderKind(g.apiURL) }
func (g *githubProvider) APIURL() string     { return g.apiURL }

// githubRepo is the subset of GitHub's repository schema this core needs.
type githubRepo struct {
	Description *string `json:"description"`
	Homepage    *string `json:"homepage"`
	License     *struct {
		Name string `json:"name"`
		SPDX string `json:"spdx_id"`
	} `json:"license"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (g *githubProvider) GetRepoMetadataAt(ctx context.Context, id RepoId, apiURL string) (RepoMetadata, error) {
	var repo githubRepo
	u := fmt.Sprintf("%s/repos/%s/%s", apiURL, url.PathEscape(id.Owner), url.PathEscape(id.Repo))
	if err := g.http.GetJSON(ctx, u, &repo); err != nil {
		return RepoMetadata{}, err
	}

	meta := RepoMetadata{
		Description: repo.Description,
		Homepage:    repo.Homepage,
		UpdatedAt:   repo.UpdatedAt,
	}
	if repo.License != nil {
		name := repo.License.SPDX
		if name == "" || name == "NOASSERTION" {
			name = repo.License.Name
		}
		if name != "" {
			meta.License = &name
		}
	}
	return meta, nil
}

// githubAsset mirrors the fields of a GitHub release asset this core uses.
type githubAsset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// githubRelease mirrors the fields of a GitHub release this core uses.
type githubRelease struct {
	TagName     string        `json:"tag_name"`
	Name        string        `json:"name"`
	PublishedAt *time.Time    `json:"published_at"`
	Prerelease  bool          `json:"prerelease"`
	TarballURL  string        `json:"tarball_url"`
	Assets      []githubAsset `json:"assets"`
}

func (r githubRelease) toRelease() Release {
	out := Release{
		Tag:         r.TagName,
		Name:        r.Name,
		PublishedAt: r.PublishedAt,
		Prerelease:  r.Prerelease,
		TarballURL:  r.TarballURL,
	}
	for _, a := range r.Assets {
		out.Assets = append(out.Assets, Asset{
			Name:        a.Name,
			Size:        a.Size,
			DownloadURL: a.BrowserDownloadURL,
		})
	}
	return out
}

// githubPerPage and githubMaxPages implement §4.4's pagination contract:
// per_page=100, stopping on an empty page or after a 10-page safety cap.
const (
	githubPerPage  = 100
	githubMaxPages = 10
)

func (g *githubProvider) GetReleasesAt(ctx context.Context, id RepoId, apiURL string) ([]Release, error) {
	base := fmt.Sprintf("%s/repos/%s/%s/releases", apiURL, url.PathEscape(id.Owner), url.PathEscape(id.Repo))

	var all []Release
	for page := 1; page <= githubMaxPages; page++ {
		var pageReleases []githubRelease
		query := url.Values{
			"per_page": {strconv.Itoa(githubPerPage)},
			"page":     {strconv.Itoa(page)},
		}
		if err := g.http.GetJSONPaged(ctx, base, query, &pageReleases); err != nil {
			return nil, err
		}
		if len(pageReleases) == 0 {
			break
		}
		for _, r := range pageReleases {
			all = append(all, r.toRelease())
		}
	}
	return all, nil
}
