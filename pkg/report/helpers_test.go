package report

import (
	"errors"
	"time"

	"digital.vasic.minitest/pkg/assertion"
	"digital.vasic.minitest/pkg/testcase"
)

func makeResults() []*testcase.Result {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fail := assertion.Expect(2).ToBe(3)

	return []*testcase.Result{
		{
			Index:     0,
			Title:     "sum adds numbers",
			Status:    testcase.StatusPassed,
			StartTime: start,
			EndTime:   start.Add(2 * time.Millisecond),
			Duration:  2 * time.Millisecond,
		},
		{
			Index:     1,
			Title:     "subtract subtracts numbers",
			Status:    testcase.StatusFailed,
			StartTime: start,
			EndTime:   start.Add(3 * time.Millisecond),
			Duration:  3 * time.Millisecond,
			Error:     fail.Error(),
			Detail:    fail,
		},
		{
			Index:     2,
			Title:     "slow",
			Status:    testcase.StatusTimedOut,
			StartTime: start,
			EndTime:   start.Add(5 * time.Millisecond),
			Duration:  5 * time.Millisecond,
			Error:     testcase.ErrTimedOut.Error(),
			Detail:    testcase.ErrTimedOut,
		},
	}
}

func fixedNow(t time.Time) func() {
	prev := now
	now = func() time.Time { return t }
	return func() { now = prev }
}

var errWrite = errors.New("write failed")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }
