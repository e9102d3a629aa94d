// Package monitor collects test lifecycle events during a run and
// serves them live over HTTP and WebSocket.
package monitor

import (
	"time"

	"digital.vasic.minitest/pkg/testcase"
)

// EventType represents the type of test event.
type EventType string

const (
	EventStarted  EventType = "started"
	EventPassed   EventType = "passed"
	EventFailed   EventType = "failed"
	EventTimedOut EventType = "timed_out"
)

// IsTerminal reports whether the event settles a test.
func (t EventType) IsTerminal() bool {
	switch t {
	case EventPassed, EventFailed, EventTimedOut:
		return true
	}
	return false
}

// TestEvent represents a lifecycle event of a single test.
type TestEvent struct {
	Type      EventType     `json:"type"`
	Index     int           `json:"index"`
	Title     string        `json:"title"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// EventForResult maps a settled result to its terminal event.
func EventForResult(result *testcase.Result) TestEvent {
	event := TestEvent{
		Index:     result.Index,
		Title:     result.Title,
		Message:   result.Error,
		Duration:  result.Duration,
		Timestamp: result.EndTime,
	}
	switch result.Status {
	case testcase.StatusPassed:
		event.Type = EventPassed
	case testcase.StatusTimedOut:
		event.Type = EventTimedOut
	default:
		event.Type = EventFailed
	}
	return event
}
