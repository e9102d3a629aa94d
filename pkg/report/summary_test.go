package report

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runTime = time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)

func TestBuildSummary_Basic(t *testing.T) {
	defer fixedNow(runTime)()

	summary := BuildSummary(makeResults())

	assert.Equal(t, "run_20260301_123045", summary.ID)
	assert.Equal(t, runTime, summary.GeneratedAt)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 1, summary.TimedOut)
	assert.Equal(t, 10*time.Millisecond, summary.TotalDuration)
	assert.InDelta(t, 1.0/3.0, summary.PassRate, 1e-9)
	assert.False(t, summary.AllPassed())

	require.Len(t, summary.Tests, 3)
	for i, ts := range summary.Tests {
		assert.Equal(t, i, ts.Index)
	}
	assert.Equal(t, "2 does not equal 3", summary.Tests[1].Error)
}

func TestBuildSummary_Empty(t *testing.T) {
	summary := BuildSummary(nil)

	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, float64(0), summary.PassRate)
	assert.Empty(t, summary.Tests)
	assert.True(t, summary.AllPassed())
}

func TestSaveSummary(t *testing.T) {
	defer fixedNow(runTime)()
	fs := afero.NewMemMapFs()
	summary := BuildSummary(makeResults())

	path, err := SaveSummary(fs, summary, "/results")
	require.NoError(t, err)
	assert.Equal(t, "/results/summary_20260301_123045.json", path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	var decoded Summary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, summary.ID, decoded.ID)
	assert.Equal(t, 3, decoded.Total)

	latest, err := afero.ReadFile(fs, "/results/latest_summary.json")
	require.NoError(t, err)
	assert.Equal(t, data, latest)

	md, err := afero.ReadFile(fs, "/results/summary_20260301_123045.md")
	require.NoError(t, err)
	latestMD, err := afero.ReadFile(fs, "/results/latest_summary.md")
	require.NoError(t, err)
	assert.Equal(t, md, latestMD)
}

func TestSaveSummary_MarshalError(t *testing.T) {
	prev := jsonMarshal
	jsonMarshal = func(any, string, string) ([]byte, error) {
		return nil, errors.New("marshal boom")
	}
	defer func() { jsonMarshal = prev }()

	_, err := SaveSummary(
		afero.NewMemMapFs(), BuildSummary(makeResults()), "/out",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal summary")
}

func TestSaveSummary_ReadOnlyFs(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	_, err := SaveSummary(fs, BuildSummary(makeResults()), "/out")
	require.Error(t, err)
}

func TestGenerateMarkdown(t *testing.T) {
	defer fixedNow(runTime)()
	results := makeResults()
	results[0].Title = "pipes | are escaped"

	md := GenerateMarkdown(BuildSummary(results))

	assert.Contains(t, md, "# Test Run Summary")
	assert.Contains(t, md, "**Run ID:** run_20260301_123045")
	assert.Contains(t, md, "| 1 | pipes \\| are escaped | Passed | 2ms |")
	assert.Contains(t, md, "| 2 | subtract subtracts numbers | Failed | 3ms |")
	assert.Contains(t, md, "| 3 | slow | Timed Out | 5ms |")
	assert.Contains(t, md, "## Failures")
	assert.Contains(t, md, "### slow")
	assert.Contains(t, md, "```\n2 does not equal 3\n```")
	assert.Contains(t, md, "| Pass Rate | 33% |")
	assert.Contains(t, md, "| Total Duration | 10ms |")
}

func TestGenerateMarkdown_EscapesFailureTitles(t *testing.T) {
	results := makeResults()
	results[1].Title = "# *bold*\nsecond line"

	md := GenerateMarkdown(BuildSummary(results))

	assert.Contains(t, md, "### \\# \\*bold\\* second line\n")
	assert.Contains(t, md, "| 2 | # *bold* second line | Failed | 3ms |")
}

func TestGenerateMarkdown_FenceOutgrowsBackticks(t *testing.T) {
	results := makeResults()
	results[1].Error = "got:\n```\nnope\n```"

	md := GenerateMarkdown(BuildSummary(results))

	assert.Contains(t, md, "````\ngot:\n```\nnope\n```\n````\n")
}

func TestCodeFence(t *testing.T) {
	assert.Equal(t, "```", codeFence("plain"))
	assert.Equal(t, "```", codeFence("a `b` c"))
	assert.Equal(t, "`````", codeFence("x ```` y"))
}

func TestGenerateMarkdown_NoFailures(t *testing.T) {
	md := GenerateMarkdown(BuildSummary(makeResults()[:1]))

	assert.NotContains(t, md, "## Failures")
	assert.Contains(t, md, "| Pass Rate | 100% |")
}
