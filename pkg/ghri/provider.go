package ghri

import (
	"context"
	"strings"
)

// ProviderKind names the git-hosting provider a Meta's api_url points at.
type ProviderKind int

const (
	ProviderGitHub ProviderKind = iota
	ProviderGitLab
	ProviderGitee
)

func (k ProviderKind) String() string {
	switch k {
	case ProviderGitLab:
		return "gitlab"
	case ProviderGitee:
		return "gitee"
	default:
		return "github"
	}
}

// InferProviderKind infers the provider from the stored api_url by
// substring match, per §4.4 — a heuristic deliberately not extended beyond
// these three declared hosts without a more principled scheme (§9).
func InferProviderKind(apiURL string) ProviderKind {
	lower := strings.ToLower(apiURL)
	switch {
	case strings.Contains(lower, "gitlab"):
		return ProviderGitLab
	case strings.Contains(lower, "gitee"):
		return ProviderGitee
	default:
		return ProviderGitHub
	}
}

// Provider is the normalized interface a core consumer sees regardless of
// which git-hosting provider backs a package.
type Provider interface {
	Kind() ProviderKind
	APIURL() string
	GetRepoMetadataAt(ctx context.Context, id RepoId, apiURL string) (RepoMetadata, error)
	GetReleasesAt(ctx context.Context, id RepoId, apiURL string) ([]Release, error)
}

// DefaultAPIURL is the built-in GitHub API base used when neither
// --api-url nor GHRI_API_URL override it.
const DefaultAPIURL = "https://api.github.com"

// NewProviderFor builds the Provider implementation matching apiURL's
// inferred kind. Only GitHub is implemented in this core; GitLab/Gitee
// inference exists so a package installed against one continues to resolve
// to the right provider kind on later operations even though this build
// only ships the GitHub client (per §4.4's "infer... so that a package
// installed against enterprise GitHub continues updating against the same
// host").
func NewProviderFor(apiURL string, http HTTPPort) Provider {
	return &githubProvider{apiURL: apiURL, http: http}
}
