package testcase

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome_Pass(t *testing.T) {
	o := Pass()
	assert.True(t, o.Passed())
	assert.Equal(t, StatusPassed, o.Status())
	assert.NoError(t, o.Detail())
}

func TestOutcome_Fail(t *testing.T) {
	boom := errors.New("boom")
	o := Fail(boom)
	assert.False(t, o.Passed())
	assert.Equal(t, StatusFailed, o.Status())
	assert.Equal(t, boom, o.Detail())
}

func TestOutcome_Fail_NilDetail(t *testing.T) {
	o := Fail(nil)
	assert.False(t, o.Passed())
	require.Error(t, o.Detail())
}

func TestOutcome_Fail_TimedOut(t *testing.T) {
	o := Fail(fmt.Errorf("after 1s: %w", ErrTimedOut))
	assert.False(t, o.Passed())
	assert.Equal(t, StatusTimedOut, o.Status())
}

func TestSettle(t *testing.T) {
	assert.True(t, Settle(nil).Passed())
	assert.False(t, Settle(errors.New("x")).Passed())
}

func TestResult_IsFinal_TerminalStatuses(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusPassed, true},
		{StatusFailed, true},
		{StatusTimedOut, true},
		{"unknown", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			r := &Result{Status: tt.status}
			assert.Equal(t, tt.expected, r.IsFinal())
		})
	}
}

func TestResult_Outcome(t *testing.T) {
	passed := &Result{Status: StatusPassed}
	assert.True(t, passed.Outcome().Passed())
	assert.True(t, passed.Passed())

	boom := errors.New("boom")
	failed := &Result{Status: StatusFailed, Detail: boom}
	assert.False(t, failed.Passed())
	assert.Equal(t, boom, failed.Outcome().Detail())
	assert.Equal(t, StatusFailed, failed.Outcome().Status())
}

func TestResult_JSON_OmitsDetail(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	r := &Result{
		Index:     3,
		Title:     "sum adds two numbers",
		Status:    StatusFailed,
		StartTime: now,
		EndTime:   now.Add(time.Second),
		Duration:  time.Second,
		Error:     "2 does not equal 3",
		Detail:    errors.New("2 does not equal 3"),
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "sum adds two numbers", raw["title"])
	assert.Equal(t, "failed", raw["status"])
	assert.Equal(t, "2 does not equal 3", raw["error"])
	_, hasDetail := raw["Detail"]
	assert.False(t, hasDetail)
}
