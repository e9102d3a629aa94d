// Package metrics counts test outcomes for a run.
package metrics

import "time"

// Failure kinds passed to RecordFailure.
const (
	FailureAssertion = "assertion"
	FailurePanic     = "panic"
	FailureTimeout   = "timeout"
	FailureError     = "error"
)

// TestMetrics defines the interface for recording test metrics.
type TestMetrics interface {
	// RecordTest records a settled test.
	RecordTest(status string, duration time.Duration)
	// RecordFailure records the cause of a failed test.
	RecordFailure(kind string)
	// IncrementRunTotal increments the finished run counter.
	IncrementRunTotal()
	// SetActiveTests sets the gauge of running tests.
	SetActiveTests(count int)
}

// NoopMetrics is a no-op implementation of TestMetrics useful
// when metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordTest(_ string, _ time.Duration) {}
func (NoopMetrics) RecordFailure(_ string)               {}
func (NoopMetrics) IncrementRunTotal()                   {}
func (NoopMetrics) SetActiveTests(_ int)                 {}
