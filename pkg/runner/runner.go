// Package runner provides the test execution engine. Tests run
// strictly one after another; each is awaited until it settles,
// reported, and never allowed to abort the run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"digital.vasic.minitest/pkg/assertion"
	"digital.vasic.minitest/pkg/logging"
	"digital.vasic.minitest/pkg/metrics"
	"digital.vasic.minitest/pkg/monitor"
	"digital.vasic.minitest/pkg/report"
	"digital.vasic.minitest/pkg/testcase"
)

// ErrNestedTest fails a test started from inside another test of
// the same runner.
var ErrNestedTest = errors.New("test started inside a running test")

// activeKey marks the context handed to hooks and bodies while a
// runner holds its lock.
type activeKey struct{}

// Hook is a function invoked before or after a test body. A
// failing pre-hook fails the test without running the body; a
// failing post-hook is only logged.
type Hook func(ctx context.Context, c testcase.Case) error

// Runner executes tests and records their results. It is safe for
// concurrent use; concurrent calls are serialised.
type Runner struct {
	mu        sync.Mutex
	logger    logging.Logger
	reporters []report.Reporter
	collector *monitor.EventCollector
	metrics   metrics.TestMetrics
	timeout   time.Duration
	preHooks  []Hook
	postHooks []Hook
	results   []*testcase.Result
	now       func() time.Time
}

// New creates a Runner with the supplied options. Without a
// timeout the runner waits for every body as long as it takes.
func New(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger:  logging.NullLogger{},
		metrics: metrics.NoopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Test runs body under title, waits for it to settle, reports it,
// and returns its outcome.
func (r *Runner) Test(
	ctx context.Context,
	title string,
	body testcase.Body,
) testcase.Outcome {
	return r.Execute(ctx, testcase.Case{Title: title, Body: body}).
		Outcome()
}

// Run executes cases in order and returns their results. Failures
// never stop the run.
func (r *Runner) Run(
	ctx context.Context,
	cases []testcase.Case,
) []*testcase.Result {
	results := make([]*testcase.Result, 0, len(cases))
	for _, c := range cases {
		results = append(results, r.Execute(ctx, c))
	}
	return results
}

// Execute runs a single case through its full lifecycle:
// pre-hooks -> body -> settle -> report -> post-hooks.
//
// A case started with a context that a running test of r handed
// out fails at once with ErrNestedTest. Such a result has Index -1
// and is neither recorded nor reported.
func (r *Runner) Execute(
	ctx context.Context,
	c testcase.Case,
) *testcase.Result {
	if owner, _ := ctx.Value(activeKey{}).(*Runner); owner == r {
		return r.rejectNested(c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	ctx = context.WithValue(ctx, activeKey{}, r)

	result := &testcase.Result{
		Index:     len(r.results),
		Title:     c.Title,
		Status:    testcase.StatusRunning,
		StartTime: r.now(),
	}
	log := r.logger.WithFields(
		logging.CaseFields(c.Title, result.Index)...,
	)

	log.Info("test_started")
	if r.collector != nil {
		r.collector.EmitStarted(result.Index, result.Title)
	}

	r.metrics.SetActiveTests(1)
	outcome := r.settle(ctx, c)
	r.metrics.SetActiveTests(0)

	result.EndTime = r.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Status = outcome.Status()
	if detail := outcome.Detail(); detail != nil {
		result.Detail = detail
		result.Error = detail.Error()
	}
	r.results = append(r.results, result)

	r.logOutcome(log, result)
	r.metrics.RecordTest(string(result.Status), result.Duration)
	if !result.Passed() {
		r.metrics.RecordFailure(FailureKind(result.Detail))
	}
	if r.collector != nil {
		r.collector.EmitResult(result)
	}

	for _, rep := range r.reporters {
		if err := rep.ReportResult(result); err != nil {
			log.Warn("reporter_failed", logging.ErrorField(err))
		}
	}

	for _, hook := range r.postHooks {
		err := testcase.Capture(func() error { return hook(ctx, c) })
		if err != nil {
			log.Warn("post_hook_warning", logging.ErrorField(err))
		}
	}

	return result
}

func (r *Runner) rejectNested(c testcase.Case) *testcase.Result {
	now := r.now()
	r.logger.Warn("nested_test_rejected",
		logging.StringField(logging.KeyTest, c.Title),
	)
	return &testcase.Result{
		Index:     -1,
		Title:     c.Title,
		Status:    testcase.StatusFailed,
		StartTime: now,
		EndTime:   now,
		Detail:    ErrNestedTest,
		Error:     ErrNestedTest.Error(),
	}
}

// settle produces the outcome of c. It never panics.
func (r *Runner) settle(
	ctx context.Context,
	c testcase.Case,
) testcase.Outcome {
	if err := c.Validate(); err != nil {
		return testcase.Fail(fmt.Errorf("invalid test: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return testcase.Fail(fmt.Errorf("test not started: %w", err))
	}

	for _, hook := range r.preHooks {
		err := testcase.Capture(func() error { return hook(ctx, c) })
		if err != nil {
			return testcase.Fail(fmt.Errorf("pre-hook failed: %w", err))
		}
	}

	execCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	done := c.Body.Start(execCtx)

	select {
	case err := <-done:
		return testcase.Settle(err)
	case <-execCtx.Done():
	}

	// A body that settled at the same instant still wins.
	select {
	case err := <-done:
		return testcase.Settle(err)
	default:
	}

	if ctx.Err() == nil && errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return testcase.Fail(
			fmt.Errorf("%w after %v", testcase.ErrTimedOut, r.timeout),
		)
	}
	return testcase.Fail(fmt.Errorf("test interrupted: %w", ctx.Err()))
}

// FailureKind classifies the detail of a failed test.
func FailureKind(detail error) string {
	var pe *testcase.PanicError
	switch {
	case errors.Is(detail, testcase.ErrTimedOut):
		return metrics.FailureTimeout
	case assertion.IsAssertionError(detail):
		return metrics.FailureAssertion
	case errors.As(detail, &pe):
		return metrics.FailurePanic
	default:
		return metrics.FailureError
	}
}

func (r *Runner) logOutcome(log logging.Logger, result *testcase.Result) {
	duration := logging.DurationField(logging.KeyDuration, result.Duration)
	switch result.Status {
	case testcase.StatusPassed:
		log.Info("test_passed", duration)
	case testcase.StatusTimedOut:
		log.Warn("test_timed_out", duration,
			logging.StringField(logging.KeyError, result.Error),
		)
	default:
		log.Warn("test_failed", duration,
			logging.StringField(logging.KeyError, result.Error),
		)
	}
}

// Results returns a copy of every result recorded so far, in run
// order.
func (r *Runner) Results() []*testcase.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*testcase.Result, len(r.results))
	copy(out, r.results)
	return out
}

// Summary aggregates the results recorded so far.
func (r *Runner) Summary() *report.Summary {
	return report.BuildSummary(r.Results())
}

// Failed reports whether any recorded test did not pass.
func (r *Runner) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if !res.Passed() {
			return true
		}
	}
	return false
}

// Finish builds the run summary and hands it to every reporter.
func (r *Runner) Finish() *report.Summary {
	summary := r.Summary()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.metrics.IncrementRunTotal()
	r.logger.Info("run_finished",
		logging.IntField("total", summary.Total),
		logging.IntField("passed", summary.Passed),
		logging.IntField("failed", summary.Failed),
		logging.DurationField(logging.KeyDuration, summary.TotalDuration),
	)
	for _, rep := range r.reporters {
		if err := rep.ReportSummary(summary); err != nil {
			r.logger.Warn("reporter_failed", logging.ErrorField(err))
		}
	}
	return summary
}
