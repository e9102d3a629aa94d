package monitor

import (
	"sync"
	"time"

	"digital.vasic.minitest/pkg/testcase"
)

// EventCollector captures test events and timing data.
type EventCollector struct {
	mu       sync.RWMutex
	events   []TestEvent
	handlers []func(TestEvent)
	stats    CollectorStats
}

// CollectorStats holds aggregate statistics. Total counts settled
// tests; Running counts tests started but not yet settled.
type CollectorStats struct {
	Total     int           `json:"total"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	TimedOut  int           `json:"timed_out"`
	Running   int           `json:"running"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
}

// NewEventCollector creates a new event collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{
		events: make([]TestEvent, 0, 64),
		stats:  CollectorStats{StartTime: time.Now()},
	}
}

// OnEvent registers a handler to be called for each event.
// Handlers run synchronously on the emitting goroutine.
func (c *EventCollector) OnEvent(handler func(TestEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Emit records an event and notifies all handlers.
func (c *EventCollector) Emit(event TestEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.events = append(c.events, event)
	switch event.Type {
	case EventStarted:
		c.stats.Running++
	case EventPassed:
		c.stats.Passed++
	case EventFailed:
		c.stats.Failed++
	case EventTimedOut:
		c.stats.Failed++
		c.stats.TimedOut++
	}
	if event.Type.IsTerminal() {
		c.stats.Total++
		if c.stats.Running > 0 {
			c.stats.Running--
		}
	}
	handlers := make([]func(TestEvent), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// EmitStarted emits a test started event.
func (c *EventCollector) EmitStarted(index int, title string) {
	c.Emit(TestEvent{
		Type:  EventStarted,
		Index: index,
		Title: title,
	})
}

// EmitPassed emits a test passed event.
func (c *EventCollector) EmitPassed(
	index int,
	title string,
	duration time.Duration,
) {
	c.Emit(TestEvent{
		Type:     EventPassed,
		Index:    index,
		Title:    title,
		Duration: duration,
	})
}

// EmitFailed emits a test failed event.
func (c *EventCollector) EmitFailed(index int, title, msg string) {
	c.Emit(TestEvent{
		Type:    EventFailed,
		Index:   index,
		Title:   title,
		Message: msg,
	})
}

// EmitResult emits the terminal event for a settled result.
func (c *EventCollector) EmitResult(result *testcase.Result) {
	c.Emit(EventForResult(result))
}

// Events returns a copy of all collected events.
func (c *EventCollector) Events() []TestEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]TestEvent, len(c.events))
	copy(result, c.events)
	return result
}

// Stats returns the current aggregate statistics.
func (c *EventCollector) Stats() CollectorStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Duration = time.Since(s.StartTime)
	return s
}

// Reset clears all collected events and statistics. Handlers stay
// registered.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.stats = CollectorStats{StartTime: time.Now()}
}
