package runner

import (
	"time"

	"digital.vasic.minitest/pkg/logging"
	"digital.vasic.minitest/pkg/metrics"
	"digital.vasic.minitest/pkg/monitor"
	"digital.vasic.minitest/pkg/report"
)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used by the runner. A nil logger is
// ignored.
func WithLogger(logger logging.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithReporter adds a reporter that receives every result and the
// final summary.
func WithReporter(rep report.Reporter) RunnerOption {
	return func(r *Runner) {
		if rep != nil {
			r.reporters = append(r.reporters, rep)
		}
	}
}

// WithCollector sets the event collector fed with test lifecycle
// events.
func WithCollector(c *monitor.EventCollector) RunnerOption {
	return func(r *Runner) {
		r.collector = c
	}
}

// WithMetrics sets the metrics sink fed with every outcome.
func WithMetrics(m metrics.TestMetrics) RunnerOption {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithTimeout bounds how long a single body may stay pending. Zero
// disables the bound.
func WithTimeout(timeout time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = timeout
	}
}

// WithPreHook adds a pre-execution hook to the runner.
func WithPreHook(h Hook) RunnerOption {
	return func(r *Runner) {
		r.preHooks = append(r.preHooks, h)
	}
}

// WithPostHook adds a post-execution hook to the runner.
func WithPostHook(h Hook) RunnerOption {
	return func(r *Runner) {
		r.postHooks = append(r.postHooks, h)
	}
}

// withClock replaces the time source, for tests.
func withClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}
