package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"digital.vasic.minitest/pkg/testcase"
)

// jsonMarshal is a package-level variable so tests can substitute
// a failing marshaller.
var jsonMarshal = json.MarshalIndent

// now is replaced in tests.
var now = time.Now

// Summary aggregates the results of one run.
type Summary struct {
	ID            string        `json:"id"`
	GeneratedAt   time.Time     `json:"generated_at"`
	Tests         []TestSummary `json:"tests"`
	Total         int           `json:"total"`
	Passed        int           `json:"passed"`
	Failed        int           `json:"failed"`
	TimedOut      int           `json:"timed_out"`
	TotalDuration time.Duration `json:"total_duration"`
	PassRate      float64       `json:"pass_rate"`
}

// TestSummary is the summary line of a single test.
type TestSummary struct {
	Index    int             `json:"index"`
	Title    string          `json:"title"`
	Status   testcase.Status `json:"status"`
	Duration time.Duration   `json:"duration"`
	Error    string          `json:"error,omitempty"`
}

// AllPassed reports whether every test in the run passed. An empty
// run counts as passing.
func (s *Summary) AllPassed() bool {
	return s.Failed == 0
}

// BuildSummary aggregates results in order. Timed out tests count
// as failed and are additionally tallied in TimedOut.
func BuildSummary(results []*testcase.Result) *Summary {
	generated := now()
	summary := &Summary{
		ID: fmt.Sprintf(
			"run_%s", generated.Format("20060102_150405"),
		),
		GeneratedAt: generated,
		Tests:       make([]TestSummary, 0, len(results)),
	}

	for _, r := range results {
		summary.Tests = append(summary.Tests, TestSummary{
			Index:    r.Index,
			Title:    r.Title,
			Status:   r.Status,
			Duration: r.Duration,
			Error:    r.Error,
		})
		summary.Total++
		summary.TotalDuration += r.Duration

		switch r.Status {
		case testcase.StatusPassed:
			summary.Passed++
		case testcase.StatusTimedOut:
			summary.TimedOut++
			summary.Failed++
		default:
			summary.Failed++
		}
	}

	if summary.Total > 0 {
		summary.PassRate =
			float64(summary.Passed) / float64(summary.Total)
	}

	return summary
}

// SaveSummary writes the summary as JSON and Markdown into dir on
// fs, and refreshes latest_summary.json and latest_summary.md with
// the same content. It returns the path of the JSON file.
func SaveSummary(
	fs afero.Fs,
	summary *Summary,
	dir string,
) (string, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf(
			"failed to create output directory: %w", err,
		)
	}

	ts := summary.GeneratedAt.Format("20060102_150405")

	jsonData, err := jsonMarshal(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf(
			"failed to marshal summary: %w", err,
		)
	}
	md := []byte(GenerateMarkdown(summary))

	jsonPath := filepath.Join(dir, fmt.Sprintf("summary_%s.json", ts))
	files := []struct {
		path string
		data []byte
	}{
		{jsonPath, jsonData},
		{filepath.Join(dir, fmt.Sprintf("summary_%s.md", ts)), md},
		{filepath.Join(dir, "latest_summary.json"), jsonData},
		{filepath.Join(dir, "latest_summary.md"), md},
	}

	for _, f := range files {
		if err := afero.WriteFile(fs, f.path, f.data, 0644); err != nil {
			return "", fmt.Errorf(
				"failed to write %s: %w",
				filepath.Base(f.path), err,
			)
		}
	}

	return jsonPath, nil
}

// GenerateMarkdown renders the summary as a Markdown document.
func GenerateMarkdown(summary *Summary) string {
	title := cases.Title(language.English)
	var sb strings.Builder

	sb.WriteString("# Test Run Summary\n\n")
	fmt.Fprintf(&sb, "**Run ID:** %s\n\n", summary.ID)
	fmt.Fprintf(
		&sb, "**Generated:** %s\n\n",
		summary.GeneratedAt.Format(time.RFC3339),
	)

	sb.WriteString("## Tests\n\n")
	sb.WriteString("| # | Test | Status | Duration |\n")
	sb.WriteString("|---|------|--------|----------|\n")

	for _, t := range summary.Tests {
		status := title.String(
			strings.ReplaceAll(string(t.Status), "_", " "),
		)
		fmt.Fprintf(
			&sb, "| %d | %s | %s | %v |\n",
			t.Index+1, escapeCell(t.Title), status, t.Duration,
		)
	}

	var failures []TestSummary
	for _, t := range summary.Tests {
		if t.Status != testcase.StatusPassed {
			failures = append(failures, t)
		}
	}
	if len(failures) > 0 {
		sb.WriteString("\n## Failures\n\n")
		for _, t := range failures {
			fence := codeFence(t.Error)
			fmt.Fprintf(&sb, "### %s\n\n", escapeHeading(t.Title))
			fmt.Fprintf(&sb, "%s\n%s\n%s\n\n", fence, t.Error, fence)
		}
	} else {
		sb.WriteString("\n")
	}

	sb.WriteString("## Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	fmt.Fprintf(&sb, "| Total | %d |\n", summary.Total)
	fmt.Fprintf(&sb, "| Passed | %d |\n", summary.Passed)
	fmt.Fprintf(&sb, "| Failed | %d |\n", summary.Failed)
	fmt.Fprintf(&sb, "| Timed Out | %d |\n", summary.TimedOut)
	fmt.Fprintf(
		&sb, "| Pass Rate | %.0f%% |\n", summary.PassRate*100,
	)
	fmt.Fprintf(
		&sb, "| Total Duration | %v |\n", summary.TotalDuration,
	)

	return sb.String()
}

var cellEscaper = strings.NewReplacer(
	"|", `\|`,
	"\r\n", " ",
	"\n", " ",
)

func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}

var headingEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
	"\r\n", " ",
	"\n", " ",
)

func escapeHeading(s string) string {
	return headingEscaper.Replace(s)
}

// codeFence returns a backtick fence longer than any backtick run
// in s.
func codeFence(s string) string {
	longest, run := 0, 0
	for _, r := range s {
		if r != '`' {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return strings.Repeat("`", max(3, longest+1))
}
