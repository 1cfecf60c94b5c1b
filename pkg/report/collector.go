package report

import (
	"sync"
	"time"
)

// Collector accumulates the outcomes of one run in configuration order.
// It is safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	parent    string
	dryRun    bool
	entries   []Entry
	untracked []string
	commitSHA string
	err       error
}

// NewCollector returns a collector with one slot per configured submodule.
func NewCollector(parent string, submodules int, dryRun bool) *Collector {
	return &Collector{
		parent:  parent,
		dryRun:  dryRun,
		entries: make([]Entry, submodules),
	}
}

// Record stores the outcome of the i-th configured submodule.
func (c *Collector) Record(i int, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[i] = e
}

// SetUntracked records the submodule paths of the parent nobody configured.
func (c *Collector) SetUntracked(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.untracked = append([]string(nil), paths...)
}

// MarkCommitted records the update commit and turns every pending entry
// into an updated one.
func (c *Collector) MarkCommitted(sha string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commitSHA = sha
	for i := range c.entries {
		if c.entries[i].Status == StatusPending {
			c.entries[i].Status = StatusUpdated
		}
	}
}

// SetError records the fatal error that ended the run.
func (c *Collector) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// HasFailures reports whether any submodule failed to reconcile.
func (c *Collector) HasFailures() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Summary returns a snapshot of the collected outcomes.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{
		Parent:     c.parent,
		DryRun:     c.dryRun,
		Committed:  c.commitSHA != "",
		CommitSHA:  c.commitSHA,
		Untracked:  append([]string(nil), c.untracked...),
		FinishedAt: time.Now().UTC(),
	}
	// Slots stay empty when the run ended before their submodule was handled
	for _, e := range c.entries {
		if e.Name != "" {
			s.Entries = append(s.Entries, e)
		}
	}
	if c.err != nil {
		s.Error = c.err.Error()
	}
	return s
}
