// Package config loads run settings from a YAML file validated
// against an embedded schema, with MINITEST_* environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// ErrInvalidConfig wraps every semantic validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings of a test run.
type Config struct {
	// Format selects the live report: console or json.
	Format string `yaml:"format" json:"format"`

	// Color is auto, always, or never.
	Color string `yaml:"color" json:"color"`

	// Timeout bounds each test body. Zero waits forever.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Stacks prints the stack of panicking tests.
	Stacks bool `yaml:"stacks" json:"stacks"`

	// ResultsDir receives run summaries. Empty disables them.
	ResultsDir string `yaml:"results_dir" json:"results_dir"`

	// HistoryFile receives one JSON line per run. Empty disables
	// history.
	HistoryFile string `yaml:"history_file" json:"history_file"`

	// MonitorAddr is the listen address of the live monitor.
	// Empty disables it.
	MonitorAddr string `yaml:"monitor_addr" json:"monitor_addr"`

	// LogFile receives structured logs. Empty logs to stderr.
	LogFile string `yaml:"log_file" json:"log_file"`

	// LogFormat is json or text.
	LogFormat string `yaml:"log_format" json:"log_format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Format:    FormatConsole,
		Color:     ColorAuto,
		LogFormat: LogFormatJSON,
	}
}

// Load reads the YAML file at path from the OS filesystem and
// applies overrides from the process environment and a .env file
// in the working directory, if present. An empty path yields the
// defaults plus overrides.
func Load(path string) (*Config, error) {
	fs := afero.NewOsFs()
	env := NewEnv()
	if err := env.LoadFile(fs, ".env"); err != nil &&
		!errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return LoadFS(fs, path, env)
}

// LoadFS is Load with an explicit filesystem and environment.
func LoadFS(fs afero.Fs, path string, env *Env) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if env != nil {
		if err := cfg.ApplyEnv(env); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse validates data against the schema and decodes it over cfg.
// Keys absent from data keep their current values.
func Parse(data []byte, cfg *Config) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return nil
	}
	if err := ValidateDocument(doc); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields with MINITEST_* variables from env.
func (c *Config) ApplyEnv(env *Env) error {
	strs := map[string]*string{
		"FORMAT":       &c.Format,
		"COLOR":        &c.Color,
		"RESULTS_DIR":  &c.ResultsDir,
		"HISTORY_FILE": &c.HistoryFile,
		"MONITOR_ADDR": &c.MonitorAddr,
		"LOG_FILE":     &c.LogFile,
		"LOG_FORMAT":   &c.LogFormat,
	}
	for name, field := range strs {
		if v, ok := env.Get(EnvPrefix + name); ok {
			*field = v
		}
	}

	bools := map[string]*bool{
		"VERBOSE": &c.Verbose,
		"STACKS":  &c.Stacks,
	}
	for name, field := range bools {
		v, ok := env.Get(EnvPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*field = b
	}

	if v, ok := env.Get(EnvPrefix + "TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err)
		}
		c.Timeout = d
	}
	return nil
}

// Validate checks field values, including those set from the
// environment or flags after schema validation.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: unknown color mode %q", ErrInvalidConfig, c.Color)
	}
	switch c.LogFormat {
	case LogFormatJSON, LogFormatText:
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout %v", ErrInvalidConfig, c.Timeout)
	}
	return nil
}
