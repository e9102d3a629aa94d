package monitor

import (
	"sort"
	"sync"
	"time"
)

// Run status values reported by the dashboard.
const (
	RunRunning  = "running"
	RunFinished = "finished"
)

// Dashboard keeps a live per-test view of a run, built from events.
type Dashboard struct {
	mu        sync.RWMutex
	runID     string
	startTime time.Time
	status    string
	tests     map[int]TestState
}

// DashboardSnapshot is a point-in-time copy of a Dashboard.
type DashboardSnapshot struct {
	RunID     string           `json:"run_id"`
	StartTime time.Time        `json:"start_time"`
	Status    string           `json:"status"`
	Tests     []TestState      `json:"tests"`
	Summary   DashboardSummary `json:"summary"`
}

// TestState is the current state of one test in the dashboard.
type TestState struct {
	Index     int           `json:"index"`
	Title     string        `json:"title"`
	Status    EventType     `json:"status"`
	StartTime *time.Time    `json:"start_time,omitempty"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// DashboardSummary holds aggregate stats for the dashboard.
type DashboardSummary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	TimedOut int     `json:"timed_out"`
	Running  int     `json:"running"`
	PassRate float64 `json:"pass_rate"`
	Elapsed  string  `json:"elapsed"`
}

// NewDashboard creates an empty dashboard for runID.
func NewDashboard(runID string) *Dashboard {
	return &Dashboard{
		runID:     runID,
		startTime: time.Now(),
		status:    RunRunning,
		tests:     make(map[int]TestState),
	}
}

// Update applies event to the test it refers to.
func (d *Dashboard) Update(event TestEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	state, exists := d.tests[event.Index]
	if !exists {
		state = TestState{Index: event.Index, Title: event.Title}
	}
	state.Status = event.Type

	if event.Type == EventStarted {
		state.StartTime = &ts
	} else if event.Type.IsTerminal() {
		state.EndTime = &ts
		state.Duration = event.Duration
		state.Message = event.Message
	}

	d.tests[event.Index] = state
}

// SetStatus sets the overall run status.
func (d *Dashboard) SetStatus(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
}

// Snapshot returns the current state with tests in run order.
func (d *Dashboard) Snapshot() DashboardSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snap := DashboardSnapshot{
		RunID:     d.runID,
		StartTime: d.startTime,
		Status:    d.status,
		Tests:     make([]TestState, 0, len(d.tests)),
	}
	for _, st := range d.tests {
		snap.Tests = append(snap.Tests, st)
	}
	sort.Slice(snap.Tests, func(i, j int) bool {
		return snap.Tests[i].Index < snap.Tests[j].Index
	})

	s := DashboardSummary{}
	for _, st := range snap.Tests {
		switch st.Status {
		case EventStarted:
			s.Running++
			continue
		case EventPassed:
			s.Passed++
		case EventFailed:
			s.Failed++
		case EventTimedOut:
			s.Failed++
			s.TimedOut++
		}
		s.Total++
	}
	if s.Total > 0 {
		s.PassRate = float64(s.Passed) / float64(s.Total) * 100
	}
	s.Elapsed = time.Since(d.startTime).Round(time.Millisecond).String()
	snap.Summary = s

	return snap
}

// BuildDashboard replays every event of collector into a new
// dashboard.
func BuildDashboard(runID string, collector *EventCollector) *Dashboard {
	d := NewDashboard(runID)
	for _, event := range collector.Events() {
		d.Update(event)
	}
	return d
}
