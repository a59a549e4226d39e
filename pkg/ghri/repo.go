package ghri

import (
	"errors"
	"strings"
)

// RepoId identifies a repository on a provider as (owner, repo). Both
// fields are non-empty for a valid RepoId.
type RepoId struct {
	Owner string
	Repo  string
}

// String returns the canonical "owner/repo" form.
func (r RepoId) String() string {
	return r.Owner + "/" + r.Repo
}

// ParsedSpec is the result of parsing a user-supplied install/remove/link
// argument of the form "owner/repo", "owner/repo@version", or
// "owner/repo@version:path".
type ParsedSpec struct {
	RepoId  RepoId
	Version string // empty when unspecified
	Path    string // empty when unspecified
}

// ParseSpec parses spec into its RepoId, optional version, and optional
// path, per §3's "Parsed from owner/repo, owner/repo@version, or
// owner/repo@version:path".
func ParseSpec(spec string) (ParsedSpec, error) {
	var out ParsedSpec

	rest := spec

	// The path suffix is independent of the version suffix: "owner/repo:path"
	// is valid with no "@version" present, so it is split off first.
	if colon := strings.LastIndexByte(rest, ':'); colon >= 0 {
		out.Path = rest[colon+1:]
		rest = rest[:colon]
	}

	if at := strings.IndexByte(rest, '@'); at >= 0 {
		out.Version = rest[at+1:]
		rest = rest[:at]
	}

	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return out, wrapErr(KindParse, "parse repo spec", spec, errInvalidSpec)
	}
	out.RepoId = RepoId{Owner: parts[0], Repo: parts[1]}
	return out, nil
}

var errInvalidSpec = errors.New("expected owner/repo, owner/repo@version, or owner/repo@version:path")
