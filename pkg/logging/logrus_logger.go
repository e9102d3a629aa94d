package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Log output formats accepted by LoggerConfig.Format.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// LoggerConfig configures the LogrusLogger.
type LoggerConfig struct {
	// OutputPath is the log file. Empty means stderr.
	OutputPath string

	// Fs holds OutputPath. Nil means the OS filesystem.
	Fs afero.Fs

	// Format is FormatJSON (default) or FormatText.
	Format string

	// Level is the minimum level written.
	Level LogLevel

	// Fields are attached to every entry.
	Fields map[string]any
}

// LogrusLogger implements Logger on top of logrus.
type LogrusLogger struct {
	base   *logrus.Logger
	entry  *logrus.Entry
	closer io.Closer
	once   *sync.Once
}

// NewLogrusLogger creates a logger from config. If OutputPath is
// set, its directory is created and the file opened for append.
func NewLogrusLogger(config LoggerConfig) (*LogrusLogger, error) {
	base := logrus.New()
	base.SetLevel(toLogrusLevel(config.Level))

	switch config.Format {
	case "", FormatJSON:
		base.SetFormatter(&logrus.JSONFormatter{})
	case FormatText:
		base.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	default:
		return nil, fmt.Errorf(
			"unknown log format: %s", config.Format,
		)
	}

	l := &LogrusLogger{base: base, once: &sync.Once{}}

	if config.OutputPath != "" {
		fs := config.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		dir := filepath.Dir(config.OutputPath)
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf(
				"failed to create log directory: %w", err,
			)
		}
		file, err := fs.OpenFile(
			config.OutputPath,
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			0644,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to open log file: %w", err,
			)
		}
		base.SetOutput(file)
		l.closer = file
	} else {
		base.SetOutput(os.Stderr)
	}

	l.entry = logrus.NewEntry(base).WithFields(
		logrus.Fields(config.Fields),
	)
	return l, nil
}

// NewLogrusLoggerTo wraps an existing writer, mainly for tests.
func NewLogrusLoggerTo(w io.Writer, level LogLevel) *LogrusLogger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(toLogrusLevel(level))
	base.SetFormatter(&logrus.JSONFormatter{})
	return &LogrusLogger{
		base:  base,
		entry: logrus.NewEntry(base),
		once:  &sync.Once{},
	}
}

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func toLogrusFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

// Info logs an informational message.
func (l *LogrusLogger) Info(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Info(msg)
}

// Warn logs a warning message.
func (l *LogrusLogger) Warn(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Warn(msg)
}

// Error logs an error message.
func (l *LogrusLogger) Error(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Error(msg)
}

// Debug logs a debug message.
func (l *LogrusLogger) Debug(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Debug(msg)
}

// WithFields returns a child logger sharing the same output.
func (l *LogrusLogger) WithFields(fields ...Field) Logger {
	return &LogrusLogger{
		base:   l.base,
		entry:  l.entry.WithFields(toLogrusFields(fields)),
		closer: l.closer,
		once:   l.once,
	}
}

// Close releases the log file. Entries logged afterwards are
// discarded.
func (l *LogrusLogger) Close() error {
	var err error
	l.once.Do(func() {
		l.base.SetOutput(io.Discard)
		if l.closer != nil {
			err = l.closer.Close()
		}
	})
	return err
}

// SetupLogging creates the run log minitest.log in logsDir on fs.
func SetupLogging(
	fs afero.Fs,
	logsDir string,
	format string,
	verbose bool,
) (*LogrusLogger, error) {
	config := LoggerConfig{
		OutputPath: filepath.Join(logsDir, "minitest.log"),
		Fs:         fs,
		Format:     format,
		Level:      LevelInfo,
	}

	if verbose {
		config.Level = LevelDebug
	}

	return NewLogrusLogger(config)
}
