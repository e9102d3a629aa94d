package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"digital.vasic.minitest/pkg/testcase"
)

// JSON Lines record kinds.
const (
	RecordResult  = "result"
	RecordSummary = "summary"
)

// JSONReporter writes one JSON object per line: a "result" record
// for every test and a final "summary" record.
type JSONReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewJSONReporter creates a JSON Lines reporter writing to out.
func NewJSONReporter(out io.Writer) *JSONReporter {
	return &JSONReporter{out: out}
}

type jsonRecord struct {
	Kind    string           `json:"kind"`
	Result  *testcase.Result `json:"result,omitempty"`
	Summary *Summary         `json:"summary,omitempty"`
}

// ReportResult writes a result record.
func (r *JSONReporter) ReportResult(result *testcase.Result) error {
	return r.write(jsonRecord{Kind: RecordResult, Result: result})
}

// ReportSummary writes the summary record.
func (r *JSONReporter) ReportSummary(summary *Summary) error {
	return r.write(jsonRecord{Kind: RecordSummary, Summary: summary})
}

func (r *JSONReporter) write(rec jsonRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", rec.Kind, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data = append(data, '\n')
	_, err = r.out.Write(data)
	return err
}
