package submodule

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"

	"github.com/tgamauf/gitsup/pkg/config"
	"github.com/tgamauf/gitsup/pkg/report"
)

// DefaultConcurrency is the number of submodule branches fetched at once.
const DefaultConcurrency = 4

// Reconciler compares the submodule pointers of the parent repository with
// the heads of the tracked branches.
type Reconciler struct {
	remote      Remote
	concurrency int
}

// NewReconciler returns a reconciler that fetches up to concurrency branch
// heads in parallel. Values below 1 mean sequential fetching.
func NewReconciler(remote Remote, concurrency int) *Reconciler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Reconciler{remote: remote, concurrency: concurrency}
}

// Reconcile reads the parent branch once and decides for every configured
// submodule whether its pointer has to move. Per-submodule failures are
// recorded in the collector and don't stop the run; a parent that can't be
// read is returned as *ParentFetchError.
func (r *Reconciler) Reconcile(ctx context.Context, cfg *config.Config, collector *report.Collector) (*Plan, error) {
	log := clog.FromContext(ctx).With("parent", cfg.Spec())

	head, err := r.remote.GetBranchHead(ctx, cfg.Owner, cfg.Repository, cfg.Branch)
	if err != nil {
		return nil, &ParentFetchError{Repository: cfg.Spec(), Err: err}
	}
	tree, err := r.remote.GetTree(ctx, cfg.Owner, cfg.Repository, head)
	if err != nil {
		return nil, &ParentFetchError{Repository: cfg.Spec(), Err: err}
	}
	log.Debugf("parent head %s, tree %s", head, tree.SHA)

	links := tree.GitLinks()
	changes := make([]*PendingChange, len(cfg.Submodules))
	configured := make(map[string]bool, len(cfg.Submodules))

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, sub := range cfg.Submodules {
		mount := treePath(sub.Path)
		configured[mount] = true

		entry := report.Entry{
			Name:   sub.Name,
			Path:   mount,
			Remote: sub.Spec(),
		}
		subLog := log.With("submodule", sub.Name)

		current, ok := links[mount]
		if !ok {
			subLog.Warnf("submodule path %q not found in parent tree", mount)
			entry.Status = report.StatusNotConfigured
			collector.Record(i, entry)
			continue
		}

		g.Go(func() error {
			latest, err := r.remote.GetBranchHead(ctx, sub.Owner, sub.Repository, sub.Branch)
			if err != nil {
				fetchErr := &FetchError{Repository: sub.Spec(), Err: err}
				subLog.Warnf("%v", fetchErr)
				entry.Status = report.StatusFailed
				entry.Reason = fetchErr.Error()
				collector.Record(i, entry)
				return nil
			}

			entry.OldSHA = current
			if latest == current {
				subLog.Debugf("up to date at %s", current)
				entry.Status = report.StatusUnchanged
			} else {
				subLog.Infof("%s -> %s", current, latest)
				entry.Status = report.StatusPending
				entry.NewSHA = latest
				changes[i] = &PendingChange{
					Name:   sub.Name,
					Branch: sub.Branch,
					Path:   mount,
					OldSHA: current,
					NewSHA: latest,
				}
			}
			collector.Record(i, entry)
			return nil
		})
	}
	// Workers record failures instead of returning them
	_ = g.Wait()

	plan := &Plan{ParentHead: head, BaseTree: tree.SHA}
	for _, c := range changes {
		if c != nil {
			plan.Changes = append(plan.Changes, *c)
		}
	}

	for p := range links {
		if !configured[p] {
			plan.Untracked = append(plan.Untracked, p)
		}
	}
	sort.Strings(plan.Untracked)
	for _, p := range plan.Untracked {
		log.Warnf("submodule at %q is not configured and won't be updated", p)
	}
	collector.SetUntracked(plan.Untracked)

	return plan, nil
}

// treePath normalizes a configured mount path to the form used in trees.
func treePath(p string) string {
	return strings.Trim(path.Clean("/"+p), "/")
}
