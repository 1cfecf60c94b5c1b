package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

const shortSHALength = 7

// Render writes the human readable report: one table row per submodule,
// the totals, untracked submodules and whether a commit was made.
func (c *Collector) Render(w io.Writer) error {
	return RenderSummary(w, c.Summary())
}

// RenderSummary writes the human readable form of a summary.
func RenderSummary(w io.Writer, s Summary) error {
	if len(s.Entries) > 0 {
		table := newTable(w, []string{"Submodule", "Path", "Status", "Change", "Detail"})
		for _, e := range s.Entries {
			if err := table.Append([]string{e.Name, e.Path, string(e.Status), change(e), detail(e)}); err != nil {
				return fmt.Errorf("failed to render report row: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%s: %d updated, %d pending, %d unchanged, %d not configured, %d failed\n",
		s.Parent,
		s.Count(StatusUpdated),
		s.Count(StatusPending),
		s.Count(StatusUnchanged),
		s.Count(StatusNotConfigured),
		s.Count(StatusFailed),
	)
	if len(s.Untracked) > 0 {
		fmt.Fprintf(w, "untracked submodules: %s\n", strings.Join(s.Untracked, ", "))
	}
	fmt.Fprintln(w, commitLine(s))
	return nil
}

func commitLine(s Summary) string {
	pending := s.Count(StatusPending)
	switch {
	case s.Committed:
		return "committed " + s.CommitSHA
	case s.Error != "" && pending > 0:
		return "no commit: update failed"
	case s.Error != "":
		return "no commit: run failed"
	case s.DryRun && pending > 0:
		return "no commit: dry run"
	default:
		return "no commit: nothing to update"
	}
}

func change(e Entry) string {
	switch e.Status {
	case StatusUpdated, StatusPending:
		return shortSHA(e.OldSHA) + " -> " + shortSHA(e.NewSHA)
	case StatusUnchanged:
		return shortSHA(e.OldSHA)
	}
	return ""
}

func detail(e Entry) string {
	switch e.Status {
	case StatusFailed:
		return e.Reason
	case StatusNotConfigured:
		return "path not found in parent tree"
	}
	return e.Remote
}

func shortSHA(sha string) string {
	if len(sha) > shortSHALength {
		return sha[:shortSHALength]
	}
	return sha
}

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}
