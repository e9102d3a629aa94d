package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// HistoricalEntry is one run in the history log.
type HistoricalEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	RunID       string    `json:"run_id"`
	Total       int       `json:"total"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	Duration    string    `json:"duration"`
	SummaryPath string    `json:"summary_path,omitempty"`
}

// AppendToHistory adds an entry for summary to the log at
// historyPath on fs. Each entry is a single JSON line.
func AppendToHistory(
	fs afero.Fs,
	historyPath string,
	summary *Summary,
	summaryPath string,
) (err error) {
	entry := HistoricalEntry{
		Timestamp:   summary.GeneratedAt,
		RunID:       summary.ID,
		Total:       summary.Total,
		Passed:      summary.Passed,
		Failed:      summary.Failed,
		Duration:    summary.TotalDuration.String(),
		SummaryPath: summaryPath,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf(
			"failed to marshal history entry: %w", err,
		)
	}

	if err := fs.MkdirAll(filepath.Dir(historyPath), 0755); err != nil {
		return fmt.Errorf(
			"failed to create history directory: %w", err,
		)
	}

	file, err := fs.OpenFile(
		historyPath,
		os.O_CREATE|os.O_APPEND|os.O_WRONLY,
		0644,
	)
	if err != nil {
		return fmt.Errorf(
			"failed to open history file: %w", err,
		)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close history file: %w", cerr)
		}
	}()

	if _, err = file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write history entry: %w", err)
	}
	return nil
}

// ReadHistory returns the entries recorded at historyPath, oldest
// first. A missing file yields no entries.
func ReadHistory(
	fs afero.Fs,
	historyPath string,
) ([]HistoricalEntry, error) {
	data, err := afero.ReadFile(fs, historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var entries []HistoricalEntry
	for i, line := range splitLines(data) {
		var e HistoricalEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf(
				"history line %d: %w", i+1, err,
			)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b != '\n' {
			continue
		}
		if i > start {
			lines = append(lines, data[start:i])
		}
		start = i + 1
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
