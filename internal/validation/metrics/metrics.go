package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for cross-document validation.
type Metrics struct {
	// Issues raised by rule and severity
	Issues *prometheus.CounterVec

	// Full validation pass latency
	ValidateLatency prometheus.Histogram

	// Format checks by outcome
	FormatChecks *prometheus.CounterVec
}

// New creates a Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the validation metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Issues: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exportdocs_validation_issues_total",
			Help: "Total validation issues raised by rule and severity",
		}, []string{"rule", "severity"}),

		ValidateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "exportdocs_validation_duration_seconds",
			Help:    "Duration of a full cross-document validation pass",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),

		FormatChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exportdocs_validation_format_checks_total",
			Help: "Total upload format checks by document type and outcome",
		}, []string{"document_type", "outcome"}), // outcome: "passed", "failed"
	}
}

// IncrementIssue records one raised issue.
func (m *Metrics) IncrementIssue(rule, severity string) {
	if m != nil {
		m.Issues.WithLabelValues(rule, severity).Inc()
	}
}

// ObserveValidateLatency records the duration of a validation pass.
func (m *Metrics) ObserveValidateLatency(d time.Duration) {
	if m != nil {
		m.ValidateLatency.Observe(d.Seconds())
	}
}

// IncrementFormatCheck records a format check outcome.
func (m *Metrics) IncrementFormatCheck(documentType string, passed bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	m.FormatChecks.WithLabelValues(documentType, outcome).Inc()
}
