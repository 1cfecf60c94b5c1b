package submodule

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tgamauf/gitsup/pkg/github"
)

// fakeRemote is an in-memory repository host
type fakeRemote struct {
	mu sync.Mutex

	heads   map[string]string       // "owner/repo:branch" -> sha
	trees   map[string]*github.Tree // commit sha -> tree
	errs    map[string]error        // call key -> error
	calls   []string
	commits []github.NewCommit
	entries [][]github.TreeEntry

	// moveRef simulates a concurrent push before UpdateRef reads the ref
	moveRef bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		heads: map[string]string{},
		trees: map[string]*github.Tree{},
		errs:  map[string]error{},
	}
}

func (f *fakeRemote) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.errs[call]
}

func (f *fakeRemote) writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, "Create") || strings.HasPrefix(c, "UpdateRef") {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeRemote) GetBranchHead(_ context.Context, owner, repo, branch string) (string, error) {
	key := fmt.Sprintf("%s/%s:%s", owner, repo, branch)
	if err := f.record("GetBranchHead " + key); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	sha, ok := f.heads[key]
	if !ok {
		return "", fmt.Errorf("branch %s not found", key)
	}
	return sha, nil
}

func (f *fakeRemote) GetTree(_ context.Context, owner, repo, sha string) (*github.Tree, error) {
	if err := f.record(fmt.Sprintf("GetTree %s/%s@%s", owner, repo, sha)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trees[sha]
	if !ok {
		return nil, fmt.Errorf("tree %s not found", sha)
	}
	return t, nil
}

func (f *fakeRemote) CreateTree(_ context.Context, owner, repo, baseTree string, entries []github.TreeEntry) (string, error) {
	if err := f.record(fmt.Sprintf("CreateTree %s/%s base=%s", owner, repo, baseTree)); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries)
	return "new-tree", nil
}

func (f *fakeRemote) CreateCommit(_ context.Context, owner, repo string, commit github.NewCommit) (string, error) {
	if err := f.record(fmt.Sprintf("CreateCommit %s/%s", owner, repo)); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits = append(f.commits, commit)
	return "new-commit", nil
}

func (f *fakeRemote) UpdateRef(_ context.Context, owner, repo, branch, oldSHA, newSHA string) error {
	key := fmt.Sprintf("%s/%s:%s", owner, repo, branch)
	if err := f.record("UpdateRef " + key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.moveRef {
		f.heads[key] = "someone-else"
	}
	if f.heads[key] != oldSHA {
		return fmt.Errorf("%w: %s is at %s", github.ErrRefMoved, key, f.heads[key])
	}
	f.heads[key] = newSHA
	return nil
}
