package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"
)

// maxBranchRedirects allows following the redirect GitHub answers with for a
// renamed branch.
const maxBranchRedirects = 1

// GetBranchHead returns the commit SHA the branch currently points at
func (c *Client) GetBranchHead(ctx context.Context, owner, repo, branch string) (string, error) {
	gh, err := c.GitHubClient()
	if err != nil {
		return "", err
	}

	b, resp, err := gh.Repositories.GetBranch(ctx, owner, repo, branch, maxBranchRedirects)
	if err != nil {
		// GetBranch bypasses go-github's response checking and reports a
		// plain error for non-200 answers
		if resp != nil && resp.Response != nil && resp.StatusCode != http.StatusOK {
			err = &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode), err: err}
		}
		return "", wrapError(fmt.Sprintf("failed to get branch %s/%s:%s", owner, repo, branch), err)
	}

	sha := b.GetCommit().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("branch %s/%s:%s has no head commit", owner, repo, branch)
	}
	return sha, nil
}

// GetTree returns the full (recursive) tree of a commit or tree SHA
func (c *Client) GetTree(ctx context.Context, owner, repo, sha string) (*Tree, error) {
	gh, err := c.GitHubClient()
	if err != nil {
		return nil, err
	}

	t, _, err := gh.Git.GetTree(ctx, owner, repo, sha, true)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("failed to get tree %s of %s/%s", sha, owner, repo), err)
	}

	// A truncated listing could hide submodule entries
	if t.GetTruncated() {
		return nil, fmt.Errorf("tree %s of %s/%s is too large and was truncated by the API", sha, owner, repo)
	}

	return convertFromGitHubTree(t), nil
}

// convertFromGitHubTree converts a github.Tree to our Tree type
func convertFromGitHubTree(t *github.Tree) *Tree {
	tree := &Tree{
		SHA:     t.GetSHA(),
		Entries: make([]TreeEntry, 0, len(t.Entries)),
	}
	for _, e := range t.Entries {
		if e == nil {
			continue
		}
		tree.Entries = append(tree.Entries, TreeEntry{
			Path: e.GetPath(),
			Mode: e.GetMode(),
			Type: e.GetType(),
			SHA:  e.GetSHA(),
		})
	}
	return tree
}

// CreateTree creates a tree from baseTree with the given entries replaced
// and returns its SHA
func (c *Client) CreateTree(ctx context.Context, owner, repo, baseTree string, entries []TreeEntry) (string, error) {
	gh, err := c.GitHubClient()
	if err != nil {
		return "", err
	}

	ghEntries := make([]*github.TreeEntry, 0, len(entries))
	for _, e := range entries {
		ghEntries = append(ghEntries, &github.TreeEntry{
			Path: github.Ptr(e.Path),
			Mode: github.Ptr(e.Mode),
			Type: github.Ptr(e.Type),
			SHA:  github.Ptr(e.SHA),
		})
	}

	t, _, err := gh.Git.CreateTree(ctx, owner, repo, baseTree, ghEntries)
	if err != nil {
		return "", wrapError(fmt.Sprintf("failed to create tree in %s/%s", owner, repo), err)
	}
	return t.GetSHA(), nil
}

// CreateCommit creates a commit object and returns its SHA
func (c *Client) CreateCommit(ctx context.Context, owner, repo string, commit NewCommit) (string, error) {
	gh, err := c.GitHubClient()
	if err != nil {
		return "", err
	}

	ghCommit := &github.Commit{
		Message: github.Ptr(commit.Message),
		Tree:    &github.Tree{SHA: github.Ptr(commit.Tree)},
	}
	for _, p := range commit.Parents {
		ghCommit.Parents = append(ghCommit.Parents, &github.Commit{SHA: github.Ptr(p)})
	}
	if commit.AuthorName != "" && commit.AuthorEmail != "" {
		ghCommit.Author = &github.CommitAuthor{
			Name:  github.Ptr(commit.AuthorName),
			Email: github.Ptr(commit.AuthorEmail),
		}
	}

	created, _, err := gh.Git.CreateCommit(ctx, owner, repo, ghCommit, nil)
	if err != nil {
		return "", wrapError(fmt.Sprintf("failed to create commit in %s/%s", owner, repo), err)
	}
	return created.GetSHA(), nil
}

// UpdateRef moves branch from oldSHA to newSHA. It returns an error wrapping
// ErrRefMoved when the branch no longer points at oldSHA; the reference is
// never force-updated.
func (c *Client) UpdateRef(ctx context.Context, owner, repo, branch, oldSHA, newSHA string) error {
	gh, err := c.GitHubClient()
	if err != nil {
		return err
	}

	refName := "heads/" + branch
	ref, _, err := gh.Git.GetRef(ctx, owner, repo, refName)
	if err != nil {
		return wrapError(fmt.Sprintf("failed to get reference %s of %s/%s", refName, owner, repo), err)
	}
	if current := ref.GetObject().GetSHA(); current != oldSHA {
		return fmt.Errorf("%w: %s/%s:%s is at %s, expected %s", ErrRefMoved, owner, repo, branch, current, oldSHA)
	}

	_, _, err = gh.Git.UpdateRef(ctx, owner, repo, &github.Reference{
		Ref:    github.Ptr(refName),
		Object: &github.GitObject{SHA: github.Ptr(newSHA)},
	}, false)
	if err != nil {
		if msg, ok := notFastForward(err); ok {
			return fmt.Errorf("%w: %s/%s:%s: %s", ErrRefMoved, owner, repo, branch, msg)
		}
		return wrapError(fmt.Sprintf("failed to update reference %s of %s/%s", refName, owner, repo), err)
	}
	return nil
}

// notFastForward reports whether err is GitHub's 422 answer to a reference
// update that is not a fast forward. Other 422s (unknown object, invalid
// ref) are ordinary failures.
func notFastForward(err error) (string, bool) {
	var apiErr *APIError
	if !errors.As(convertError(err), &apiErr) || apiErr.StatusCode != http.StatusUnprocessableEntity {
		return "", false
	}
	if !strings.Contains(strings.ToLower(apiErr.Message), "fast forward") {
		return "", false
	}
	return apiErr.Message, true
}

// wrapError converts go-github errors and prefixes them with what failed
func wrapError(msg string, err error) error {
	converted := convertError(err)
	if hint := describeError(converted); hint != "" {
		return fmt.Errorf("%s: %s: %w", msg, hint, converted)
	}
	return fmt.Errorf("%s: %w", msg, converted)
}
