// Package report collects the per-submodule outcomes of a gitsup run and
// renders them as a table and as a JSON summary file.
package report

import (
	"time"
)

// Status is the outcome of a single submodule.
type Status string

const (
	// StatusUpdated means the new pointer was committed to the parent.
	StatusUpdated Status = "updated"

	// StatusPending means the submodule changed but no commit was made,
	// either because of a dry run or because the update failed.
	StatusPending Status = "pending"

	// StatusUnchanged means the parent already points at the branch head.
	StatusUnchanged Status = "unchanged"

	// StatusNotConfigured means the mount path has no submodule entry in
	// the parent tree.
	StatusNotConfigured Status = "not_configured"

	// StatusFailed means the submodule could not be reconciled.
	StatusFailed Status = "failed"
)

// Entry is the outcome of one configured submodule.
type Entry struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Remote string `json:"remote"`
	Status Status `json:"status"`

	// OldSHA and NewSHA are set for updated and pending entries; OldSHA is
	// also set for unchanged entries.
	OldSHA string `json:"old_sha,omitempty"`
	NewSHA string `json:"new_sha,omitempty"`

	// Reason explains a failed entry.
	Reason string `json:"reason,omitempty"`
}

// Summary is the persisted result of a run.
type Summary struct {
	// Parent is the parent repository as "owner/repository:branch"
	Parent string `json:"parent"`

	DryRun    bool   `json:"dry_run"`
	Committed bool   `json:"committed"`
	CommitSHA string `json:"commit_sha,omitempty"`

	// Entries in configuration order
	Entries []Entry `json:"entries"`

	// Untracked lists submodule paths of the parent that no configured
	// submodule covers
	Untracked []string `json:"untracked,omitempty"`

	// Error is the fatal error that ended the run, if any
	Error string `json:"error,omitempty"`

	FinishedAt time.Time `json:"finished_at"`
}

// Count returns the number of entries with the given status.
func (s Summary) Count(status Status) int {
	n := 0
	for _, e := range s.Entries {
		if e.Status == status {
			n++
		}
	}
	return n
}
