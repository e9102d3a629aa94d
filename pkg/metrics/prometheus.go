package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Metric names exported by PrometheusMetrics.
const (
	MetricTests    = "minitest_tests_total"
	MetricFailures = "minitest_failures_total"
	MetricDuration = "minitest_test_duration_seconds"
	MetricRuns     = "minitest_runs_total"
	MetricActive   = "minitest_active_tests"
)

// PrometheusMetrics implements TestMetrics on a private Prometheus
// registry, so several runs in one process never collide.
type PrometheusMetrics struct {
	registry *prometheus.Registry
	tests    *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration prometheus.Summary
	runs     prometheus.Counter
	active   prometheus.Gauge
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance.
func NewPrometheusMetrics() *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		tests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricTests,
			Help: "Settled tests by status.",
		}, []string{"status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricFailures,
			Help: "Failed tests by cause.",
		}, []string{"kind"}),
		duration: prometheus.NewSummary(prometheus.SummaryOpts{
			Name: MetricDuration,
			Help: "Time until a test settled.",
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRuns,
			Help: "Finished runs.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricActive,
			Help: "Tests currently running.",
		}),
	}
	m.registry.MustRegister(
		m.tests, m.failures, m.duration, m.runs, m.active,
	)
	return m
}

func (m *PrometheusMetrics) RecordTest(status string, duration time.Duration) {
	m.tests.WithLabelValues(status).Inc()
	m.duration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordFailure(kind string) {
	m.failures.WithLabelValues(kind).Inc()
}

func (m *PrometheusMetrics) IncrementRunTotal() {
	m.runs.Inc()
}

func (m *PrometheusMetrics) SetActiveTests(count int) {
	m.active.Set(float64(count))
}

// Registry returns the registry holding every minitest collector.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TestCount returns the number of tests settled with status.
func (m *PrometheusMetrics) TestCount(status string) int {
	return int(m.value(MetricTests, "status", status))
}

// FailureCount returns the number of failures of kind.
func (m *PrometheusMetrics) FailureCount(kind string) int {
	return int(m.value(MetricFailures, "kind", kind))
}

// RunTotal returns the total number of finished runs.
func (m *PrometheusMetrics) RunTotal() int {
	return int(m.value(MetricRuns, "", ""))
}

// ActiveTests returns the current running tests gauge.
func (m *PrometheusMetrics) ActiveTests() int {
	return int(m.value(MetricActive, "", ""))
}

// value reads a counter or gauge from a gathered snapshot. Reading
// through Gather keeps the getters from creating empty label series.
func (m *PrometheusMetrics) value(name, label, labelValue string) float64 {
	families, err := m.registry.Gather()
	if err != nil {
		return 0
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if label != "" && !hasLabel(metric, label, labelValue) {
				continue
			}
			switch {
			case metric.GetCounter() != nil:
				return metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				return metric.GetGauge().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == name && pair.GetValue() == value {
			return true
		}
	}
	return false
}
