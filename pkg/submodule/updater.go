package submodule

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"

	"github.com/tgamauf/gitsup/pkg/config"
	"github.com/tgamauf/gitsup/pkg/github"
)

// Updater writes a plan to the parent repository as one commit.
type Updater struct {
	remote Remote
}

// NewUpdater returns an updater writing through remote.
func NewUpdater(remote Remote) *Updater {
	return &Updater{remote: remote}
}

// Apply creates one tree and one commit holding all changes of the plan and
// moves the parent branch to it, provided the branch still points at the
// commit the plan was computed from. An empty plan makes no remote calls.
// Failures are returned as *UpdateError.
func (u *Updater) Apply(ctx context.Context, cfg *config.Config, plan *Plan) (*Result, error) {
	if plan.Empty() {
		return &Result{}, nil
	}

	log := clog.FromContext(ctx).With("parent", cfg.Spec())

	entries := make([]github.TreeEntry, 0, len(plan.Changes))
	for _, c := range plan.Changes {
		entries = append(entries, github.GitLinkEntry(c.Path, c.NewSHA))
	}

	tree, err := u.remote.CreateTree(ctx, cfg.Owner, cfg.Repository, plan.BaseTree, entries)
	if err != nil {
		return nil, &UpdateError{Stage: StageCreateTree, Err: err}
	}

	commit, err := u.remote.CreateCommit(ctx, cfg.Owner, cfg.Repository, github.NewCommit{
		Message:     CommitMessage(cfg.Branch, plan.Changes),
		Tree:        tree,
		Parents:     []string{plan.ParentHead},
		AuthorName:  cfg.AuthorName,
		AuthorEmail: cfg.AuthorEmail,
	})
	if err != nil {
		return nil, &UpdateError{Stage: StageCreateCommit, Err: err}
	}

	if err := u.remote.UpdateRef(ctx, cfg.Owner, cfg.Repository, cfg.Branch, plan.ParentHead, commit); err != nil {
		return nil, &UpdateError{Stage: StageUpdateRef, Err: err}
	}

	log.Infof("committed %s updating %d submodule(s)", commit, len(plan.Changes))
	return &Result{Committed: true, CommitSHA: commit}, nil
}

// CommitMessage builds the message of the update commit.
func CommitMessage(branch string, changes []PendingChange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Update submodules in '%s' to latest commits\n", branch)
	for _, c := range changes {
		fmt.Fprintf(&b, "\n* Update submodule '%s' to HEAD of branch '%s':\n\t%s -> %s", c.Name, c.Branch, c.OldSHA, c.NewSHA)
	}
	return b.String()
}
