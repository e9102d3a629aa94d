// Package report renders test results: live per-test lines on a
// console or as JSON, and persisted run summaries and history.
package report

import (
	"errors"

	"digital.vasic.minitest/pkg/testcase"
)

// Reporter receives each settled test and the final summary.
type Reporter interface {
	// ReportResult is called once per test, in run order.
	ReportResult(result *testcase.Result) error

	// ReportSummary is called once when the run finishes.
	ReportSummary(summary *Summary) error
}

// MultiReporter fans out to several reporters.
type MultiReporter struct {
	reporters []Reporter
}

// Multi creates a reporter writing to all given reporters. Nil
// entries are skipped.
func Multi(reporters ...Reporter) *MultiReporter {
	kept := make([]Reporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return &MultiReporter{reporters: kept}
}

// ReportResult forwards to every reporter and joins their errors.
func (m *MultiReporter) ReportResult(result *testcase.Result) error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.ReportResult(result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReportSummary forwards to every reporter and joins their errors.
func (m *MultiReporter) ReportSummary(summary *Summary) error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.ReportSummary(summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
