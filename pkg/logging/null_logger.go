package logging

// NullLogger drops every entry. A runner built without WithLogger
// uses it, so quiet runs pay no formatting cost.
type NullLogger struct{}

func (NullLogger) Info(string, ...Field)        {}
func (NullLogger) Warn(string, ...Field)        {}
func (NullLogger) Error(string, ...Field)       {}
func (NullLogger) Debug(string, ...Field)       {}
func (n NullLogger) WithFields(...Field) Logger { return n }
func (NullLogger) Close() error                 { return nil }
