package config

import (
	"fmt"
	"regexp"
)

// RepoRef formats:
// - "owner/repo" (branch left empty, resolved later)
// - "owner/repo:branch"

var repoRefRegex = regexp.MustCompile(`^([\w.-]+)/([\w.-]+)(?::([\w./-]+))?$`)

// RepoRef identifies a branch of a GitHub repository.
type RepoRef struct {
	Owner  string
	Repo   string
	Branch string
}

// ParseRepoRef parses an "owner/repo[:branch]" reference.
func ParseRepoRef(s string) (*RepoRef, error) {
	matches := repoRefRegex.FindStringSubmatch(s)
	if matches == nil {
		return nil, fmt.Errorf("invalid repository reference: %s (expected owner/repo[:branch])", s)
	}

	return &RepoRef{
		Owner:  matches[1],
		Repo:   matches[2],
		Branch: matches[3],
	}, nil
}

// String returns the reference as "owner/repo:branch", omitting an empty branch.
func (r RepoRef) String() string {
	if r.Branch == "" {
		return r.FullName()
	}
	return fmt.Sprintf("%s/%s:%s", r.Owner, r.Repo, r.Branch)
}

// FullName returns the full repository name (owner/repo).
func (r RepoRef) FullName() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Repo)
}
