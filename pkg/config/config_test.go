package config

import (
	"testing"
	"time"

	"github.com/lithammer/dedent"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyEnv() *Env {
	return NewEnvWithLookup(func(string) (string, bool) { return "", false })
}

func mapEnv(vars map[string]string) *Env {
	return NewEnvWithLookup(func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	})
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, FormatConsole, cfg.Format)
	assert.Equal(t, ColorAuto, cfg.Color)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.Zero(t, cfg.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFS_NoPath(t *testing.T) {
	cfg, err := LoadFS(afero.NewMemMapFs(), "", emptyEnv())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFS_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/minitest.yaml", dedent.Dedent(`
		format: json
		color: never
		timeout: 1m30s
		verbose: true
		stacks: true
		results_dir: out/results
		history_file: out/history.jsonl
		monitor_addr: 127.0.0.1:9090
		log_file: out/minitest.log
		log_format: text
	`))

	cfg, err := LoadFS(fs, "/minitest.yaml", emptyEnv())
	require.NoError(t, err)

	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, ColorNever, cfg.Color)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.Stacks)
	assert.Equal(t, "out/results", cfg.ResultsDir)
	assert.Equal(t, "out/history.jsonl", cfg.HistoryFile)
	assert.Equal(t, "127.0.0.1:9090", cfg.MonitorAddr)
	assert.Equal(t, "out/minitest.log", cfg.LogFile)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
}

func TestLoadFS_PartialFileKeepsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/c.yaml", "verbose: true\n")

	cfg, err := LoadFS(fs, "/c.yaml", emptyEnv())
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, FormatConsole, cfg.Format)
	assert.Equal(t, ColorAuto, cfg.Color)
}

func TestLoadFS_EmptyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/c.yaml", "")

	cfg, err := LoadFS(fs, "/c.yaml", emptyEnv())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFS_Missing(t *testing.T) {
	_, err := LoadFS(afero.NewMemMapFs(), "/nope.yaml", emptyEnv())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config /nope.yaml")
}

func TestLoadFS_SchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown format", "format: html\n"},
		{"unknown key", "paralell: true\n"},
		{"bad timeout", "timeout: soon\n"},
		{"integer timeout", "timeout: 5\n"},
		{"wrong type", "verbose: yes please\n"},
		{"bad log format", "log_format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFile(t, fs, "/c.yaml", tt.content)

			_, err := LoadFS(fs, "/c.yaml", emptyEnv())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}

func TestLoadFS_InvalidYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/c.yaml", "format: [unclosed\n")

	_, err := LoadFS(fs, "/c.yaml", emptyEnv())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse yaml")
}

func TestLoadFS_EnvOverridesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/c.yaml", "format: json\ntimeout: 5s\n")

	cfg, err := LoadFS(fs, "/c.yaml", mapEnv(map[string]string{
		"MINITEST_FORMAT":       "console",
		"MINITEST_TIMEOUT":      "250ms",
		"MINITEST_VERBOSE":      "true",
		"MINITEST_MONITOR_ADDR": ":8088",
	}))
	require.NoError(t, err)

	assert.Equal(t, FormatConsole, cfg.Format)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, ":8088", cfg.MonitorAddr)
}

func TestLoadFS_EnvErrors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"bad bool", map[string]string{"MINITEST_VERBOSE": "maybe"}, "MINITEST_VERBOSE"},
		{"bad duration", map[string]string{"MINITEST_TIMEOUT": "later"}, "MINITEST_TIMEOUT"},
		{"bad format", map[string]string{"MINITEST_FORMAT": "xml"}, "unknown format"},
		{"negative timeout", map[string]string{"MINITEST_TIMEOUT": "-1s"}, "negative timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFS(afero.NewMemMapFs(), "", mapEnv(tt.vars))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Color = "rainbow"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = Default()
	cfg.LogFormat = "xml"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
