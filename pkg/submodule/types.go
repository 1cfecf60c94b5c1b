// Package submodule compares the submodule pointers of a parent repository
// with the heads of the tracked branches and moves the outdated pointers in
// a single commit.
package submodule

import (
	"context"
	"fmt"

	"github.com/tgamauf/gitsup/pkg/github"
)

// Remote is the part of the repository hosting API gitsup depends on.
// *github.Client implements it.
type Remote interface {
	// GetBranchHead returns the commit the branch points at.
	GetBranchHead(ctx context.Context, owner, repo, branch string) (string, error)

	// GetTree returns the recursive tree of a commit.
	GetTree(ctx context.Context, owner, repo, sha string) (*github.Tree, error)

	// CreateTree creates a tree from baseTree with entries replaced.
	CreateTree(ctx context.Context, owner, repo, baseTree string, entries []github.TreeEntry) (string, error)

	// CreateCommit creates a commit object.
	CreateCommit(ctx context.Context, owner, repo string, commit github.NewCommit) (string, error)

	// UpdateRef moves branch to newSHA if it still points at oldSHA and
	// returns an error wrapping github.ErrRefMoved otherwise.
	UpdateRef(ctx context.Context, owner, repo, branch, oldSHA, newSHA string) error
}

var _ Remote = (*github.Client)(nil)

// PendingChange is a submodule pointer that has to move.
type PendingChange struct {
	Name   string
	Branch string
	Path   string
	OldSHA string
	NewSHA string
}

// Plan is the result of a reconciliation.
type Plan struct {
	// ParentHead is the parent branch commit the plan was computed from.
	ParentHead string

	// BaseTree is the tree of ParentHead.
	BaseTree string

	// Changes in configuration order.
	Changes []PendingChange

	// Untracked lists submodule paths of the parent that no configured
	// submodule covers.
	Untracked []string
}

// Empty reports whether there is nothing to update.
func (p *Plan) Empty() bool {
	return p == nil || len(p.Changes) == 0
}

// Result is the outcome of applying a plan.
type Result struct {
	Committed bool
	CommitSHA string
}

// ParentFetchError is returned when the parent repository state can't be
// read. It aborts the run.
type ParentFetchError struct {
	Repository string
	Err        error
}

func (e *ParentFetchError) Error() string {
	return fmt.Sprintf("failed to read parent repository %s: %v", e.Repository, e.Err)
}

func (e *ParentFetchError) Unwrap() error {
	return e.Err
}

// FetchError records why the head of one submodule's branch couldn't be
// read. The submodule is reported as failed and the run continues.
type FetchError struct {
	Repository string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Repository, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Stage names the step of an update that failed.
type Stage string

const (
	StageCreateTree   Stage = "create tree"
	StageCreateCommit Stage = "create commit"
	StageUpdateRef    Stage = "update reference"
)

// UpdateError is returned when the parent commit can't be written. Nothing
// is committed when it occurs.
type UpdateError struct {
	Stage Stage
	Err   error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("failed to update parent repository (%s): %v", e.Stage, e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}
