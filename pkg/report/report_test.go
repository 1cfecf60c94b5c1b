package report

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const (
	oldSHA = "1111111aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	newSHA = "2222222bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func sampleCollector(dryRun bool) *Collector {
	c := NewCollector("acme/parent:master", 4, dryRun)
	c.Record(3, Entry{Name: "docs", Path: "docs", Remote: "acme/docs:master", Status: StatusFailed, Reason: "branch not found"})
	c.Record(0, Entry{Name: "lib", Path: "lib", Remote: "acme/lib:master", Status: StatusPending, OldSHA: oldSHA, NewSHA: newSHA})
	c.Record(2, Entry{Name: "web", Path: "web", Remote: "acme/web:master", Status: StatusNotConfigured})
	c.Record(1, Entry{Name: "tools", Path: "tools", Remote: "acme/tools:develop", Status: StatusUnchanged, OldSHA: oldSHA})
	return c
}

func TestCollector_KeepsConfigurationOrder(t *testing.T) {
	c := NewCollector("acme/parent:master", 50, false)

	var wg sync.WaitGroup
	for i := 49; i >= 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Record(i, Entry{Name: string(rune('A' + i%26)), Status: StatusUnchanged})
		}(i)
	}
	wg.Wait()

	s := c.Summary()
	for i, e := range s.Entries {
		if want := string(rune('A' + i%26)); e.Name != want {
			t.Fatalf("Entries[%d].Name = %q, want %q", i, e.Name, want)
		}
	}
}

func TestCollector_MarkCommitted(t *testing.T) {
	c := sampleCollector(false)
	c.MarkCommitted("cafe")

	s := c.Summary()
	got := []Status{}
	for _, e := range s.Entries {
		got = append(got, e.Status)
	}
	want := []Status{StatusUpdated, StatusUnchanged, StatusNotConfigured, StatusFailed}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
	if !s.Committed || s.CommitSHA != "cafe" {
		t.Errorf("Committed = %v, CommitSHA = %q", s.Committed, s.CommitSHA)
	}
	if !c.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*Collector)
		dryRun    bool
		wantLines []string
	}{
		{
			name:  "committed",
			setup: func(c *Collector) { c.MarkCommitted("cafe") },
			wantLines: []string{
				"acme/parent:master: 1 updated, 0 pending, 1 unchanged, 1 not configured, 1 failed",
				"committed cafe",
			},
		},
		{
			name:   "dry run",
			dryRun: true,
			wantLines: []string{
				"acme/parent:master: 0 updated, 1 pending, 1 unchanged, 1 not configured, 1 failed",
				"no commit: dry run",
			},
		},
		{
			name:  "update failed",
			setup: func(c *Collector) { c.SetError(errors.New("branch reference moved")) },
			wantLines: []string{
				"no commit: update failed",
			},
		},
		{
			name: "untracked",
			setup: func(c *Collector) {
				c.SetUntracked([]string{"extra", "vendor/x"})
				c.MarkCommitted("cafe")
			},
			wantLines: []string{
				"untracked submodules: extra, vendor/x",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sampleCollector(tt.dryRun)
			if tt.setup != nil {
				tt.setup(c)
			}

			var buf bytes.Buffer
			if err := c.Render(&buf); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			out := buf.String()

			for _, line := range tt.wantLines {
				if !strings.Contains(out, line+"\n") {
					t.Errorf("output missing line %q:\n%s", line, out)
				}
			}
			for _, cell := range []string{"lib", "tools", "web", "docs", "1111111 -> 2222222", "branch not found", "path not found in parent tree"} {
				if !strings.Contains(out, cell) {
					t.Errorf("output missing %q:\n%s", cell, out)
				}
			}
			if strings.Index(out, "lib") > strings.Index(out, "docs") {
				t.Errorf("rows out of configuration order:\n%s", out)
			}
		})
	}
}

func TestRender_NothingToUpdate(t *testing.T) {
	c := NewCollector("acme/parent:master", 1, false)
	c.Record(0, Entry{Name: "lib", Path: "lib", Status: StatusUnchanged, OldSHA: oldSHA})

	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.HasSuffix(buf.String(), "no commit: nothing to update\n") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestRender_FatalErrorWithoutEntries(t *testing.T) {
	c := NewCollector("acme/parent:master", 0, false)
	c.SetError(errors.New("parent branch not found"))

	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.HasSuffix(buf.String(), "no commit: run failed\n") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestWriteSummary(t *testing.T) {
	t.Run("writes and reads summary", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "gitsup-report.json")

		c := sampleCollector(false)
		c.MarkCommitted("cafe")
		want := c.Summary()
		want.FinishedAt = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

		if err := WriteSummary(path, want); err != nil {
			t.Fatalf("WriteSummary() error = %v", err)
		}
		got, err := ReadSummary(path)
		if err != nil {
			t.Fatalf("ReadSummary() error = %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("summary mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("sets FinishedAt if zero", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.json")
		before := time.Now().Add(-time.Second)

		if err := WriteSummary(path, Summary{Parent: "acme/parent:master"}); err != nil {
			t.Fatalf("WriteSummary() error = %v", err)
		}
		got, err := ReadSummary(path)
		if err != nil {
			t.Fatalf("ReadSummary() error = %v", err)
		}
		if got.FinishedAt.Before(before) {
			t.Errorf("FinishedAt = %v, want after %v", got.FinishedAt, before)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ReadSummary(filepath.Join(t.TempDir(), "missing.json")); err == nil {
			t.Error("ReadSummary() of a missing file succeeded")
		}
	})
}
