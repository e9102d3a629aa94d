package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.minitest/internal/demo"
	"digital.vasic.minitest/pkg/globals"
	"digital.vasic.minitest/pkg/registry"
	"digital.vasic.minitest/pkg/report"
	"digital.vasic.minitest/pkg/testcase"
)

func demoApp(t *testing.T) App {
	t.Helper()
	t.Cleanup(globals.Uninstall)
	reg := registry.NewRegistry()
	require.NoError(t, demo.Register(reg))
	return App{Registry: reg, Fs: afero.NewMemMapFs(), Version: "1.2.3"}
}

func passingApp(t *testing.T) App {
	t.Helper()
	t.Cleanup(globals.Uninstall)
	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(registry.File{
		Name: "ok",
		Load: func(gc *globals.Context) {
			gc.Test("passes", testcase.Sync(func() error { return nil }))
		},
	}))
	return App{Registry: reg, Fs: afero.NewMemMapFs()}
}

func execute(t *testing.T, app App, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := New(app)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, demoApp(t), "version")
	require.NoError(t, err)
	assert.Equal(t, "minitest 1.2.3\n", out)
}

func TestList(t *testing.T) {
	out, _, err := execute(t, demoApp(t), "list")
	require.NoError(t, err)
	assert.Equal(t, "1. math_test\n2. async_test\n", out)
}

func TestRun_ConsoleReportsEveryTest(t *testing.T) {
	out, _, err := execute(t, demoApp(t), "run", "--color", "never")
	require.ErrorIs(t, err, ErrTestsFailed)

	assert.Contains(t, out, "✅ sum adds numbers\n")
	assert.Contains(t, out, "💔 subtract subtracts numbers\n    2 does not equal 3\n")
	assert.Contains(t, out, "✅ sum adds two numbers\n")
	assert.Contains(t, out, "✅ subtract minuses two numbers\n")
	assert.Contains(t, out, "4 tests, 3 passed, 1 failed")
	assert.NotContains(t, out, "\033[")
}

func TestRun_AllPassed(t *testing.T) {
	out, _, err := execute(t, passingApp(t), "run")
	require.NoError(t, err)
	assert.Contains(t, out, "✅ passes\n")
}

func TestRun_JSONFormat(t *testing.T) {
	out, _, err := execute(t, demoApp(t), "run", "--format", "json")
	require.ErrorIs(t, err, ErrTestsFailed)

	var kinds []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		kinds = append(kinds, rec["kind"].(string))
	}
	assert.Equal(t, []string{
		report.RecordResult, report.RecordResult,
		report.RecordResult, report.RecordResult,
		report.RecordSummary,
	}, kinds)
}

func TestRun_InvalidFlag(t *testing.T) {
	_, _, err := execute(t, demoApp(t), "run", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
	assert.False(t, errors.Is(err, ErrTestsFailed))
}

func TestRun_Verbose(t *testing.T) {
	_, stderr, err := execute(t, passingApp(t), "run", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stderr, "test_started")
	assert.Contains(t, stderr, "run_finished")
}

func TestRun_PersistsSummaryAndHistory(t *testing.T) {
	app := demoApp(t)

	_, _, err := execute(t, app, "run",
		"--results-dir", "/out",
		"--history", "/out/history.jsonl",
	)
	require.ErrorIs(t, err, ErrTestsFailed)

	data, err := afero.ReadFile(app.Fs, "/out/latest_summary.json")
	require.NoError(t, err)
	var summary report.Summary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Failed)

	entries, err := report.ReadHistory(app.Fs, "/out/history.jsonl")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, summary.ID, entries[0].RunID)
	assert.Equal(t, "/out", filepath.Dir(entries[0].SummaryPath))
}

func TestRun_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minitest.yaml")
	require.NoError(t, afero.WriteFile(
		afero.NewOsFs(), path, []byte("format: json\n"), 0644,
	))

	out, _, err := execute(t, passingApp(t), "run", "--config", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `{"kind":"result"`))
}

func TestRun_FlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minitest.yaml")
	require.NoError(t, afero.WriteFile(
		afero.NewOsFs(), path, []byte("format: json\n"), 0644,
	))

	out, _, err := execute(t, passingApp(t),
		"run", "--config", path, "--format", "console",
	)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "✅ passes"))
}

func TestRun_BadConfig(t *testing.T) {
	_, _, err := execute(t, passingApp(t), "run", "--config", "/does/not/exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_LoadPanicIsReported(t *testing.T) {
	t.Cleanup(globals.Uninstall)
	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(registry.File{
		Name: "broken",
		Load: func(*globals.Context) { panic("no such helper") },
	}))

	_, _, err := execute(t, App{Registry: reg, Fs: afero.NewMemMapFs()}, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load broken")
}

func TestRun_LogFile(t *testing.T) {
	t.Setenv("MINITEST_LOG_FILE", "/logs/run.log")
	app := passingApp(t)

	_, _, err := execute(t, app, "run")
	require.NoError(t, err)

	data, err := afero.ReadFile(app.Fs, "/logs/run.log")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"test_passed"`)
}
