package testcase

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a single test.
type Status string

// Status constants for test outcomes.
const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timed_out"
)

// ErrTimedOut is the failure detail of a body that did not settle
// within the runner's timeout.
var ErrTimedOut = errors.New("test did not settle before the timeout")

// Outcome is the settled state of a test: a pass, or a failure with
// its detail. The zero value is not a valid outcome.
type Outcome struct {
	status Status
	detail error
}

// Pass returns a passing outcome.
func Pass() Outcome {
	return Outcome{status: StatusPassed}
}

// Fail returns a failing outcome carrying err. A nil err is replaced
// with a generic error so a failure always has a detail.
func Fail(err error) Outcome {
	if err == nil {
		err = errors.New("test failed")
	}
	status := StatusFailed
	if errors.Is(err, ErrTimedOut) {
		status = StatusTimedOut
	}
	return Outcome{status: status, detail: err}
}

// Settle converts the value produced by a body into an outcome.
func Settle(err error) Outcome {
	if err == nil {
		return Pass()
	}
	return Fail(err)
}

// Passed reports whether the test passed.
func (o Outcome) Passed() bool { return o.status == StatusPassed }

// Status returns StatusPassed, StatusFailed, or StatusTimedOut.
func (o Outcome) Status() Status { return o.status }

// Detail returns the failure, or nil for a pass.
func (o Outcome) Detail() error { return o.detail }

// Result records one executed test.
type Result struct {
	// Index is the zero-based declaration order within the run.
	Index int `json:"index"`

	// Title is the test title.
	Title string `json:"title"`

	// Status is one of the Status* constants.
	Status Status `json:"status"`

	// StartTime is when the body was invoked.
	StartTime time.Time `json:"start_time"`

	// EndTime is when the body settled.
	EndTime time.Time `json:"end_time"`

	// Duration is the wall-clock time until settlement.
	Duration time.Duration `json:"duration"`

	// Error holds the failure message, if any.
	Error string `json:"error,omitempty"`

	// Detail is the failure itself.
	Detail error `json:"-"`
}

// Outcome returns the result's settled outcome.
func (r *Result) Outcome() Outcome {
	if r.Status == StatusPassed {
		return Pass()
	}
	return Outcome{status: r.Status, detail: r.Detail}
}

// Passed reports whether the test passed.
func (r *Result) Passed() bool {
	return r.Status == StatusPassed
}

// IsFinal returns true if the status is a terminal state.
func (r *Result) IsFinal() bool {
	switch r.Status {
	case StatusPassed, StatusFailed, StatusTimedOut:
		return true
	}
	return false
}
