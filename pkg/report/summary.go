package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteSummary writes the summary as indented JSON to path, creating the
// parent directory if needed.
func WriteSummary(path string, summary Summary) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	if summary.FinishedAt.IsZero() {
		summary.FinishedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// ReadSummary reads a summary written by WriteSummary.
func ReadSummary(path string) (Summary, error) {
	var summary Summary

	data, err := os.ReadFile(path)
	if err != nil {
		return summary, fmt.Errorf("failed to read summary: %w", err)
	}

	if err := json.Unmarshal(data, &summary); err != nil {
		return summary, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return summary, nil
}
