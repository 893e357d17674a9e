package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the document lifecycle.
type Metrics struct {
	// Successful transitions by edge
	Transitions *prometheus.CounterVec

	// Transitions refused by the lifecycle table or a guard
	InvalidTransitions *prometheus.CounterVec

	// Compare-and-swap conflicts
	StaleConflicts prometheus.Counter

	// Container extraction confidence on bills of lading
	ExtractionConfidence prometheus.Histogram

	// Suggestions surfaced and decided
	Suggestions *prometheus.CounterVec
}

// New creates a Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the document metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exportdocs_document_transitions_total",
			Help: "Total document state transitions by source and target state",
		}, []string{"from", "to"}),

		InvalidTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exportdocs_document_invalid_transitions_total",
			Help: "Total refused document transitions by requested target state",
		}, []string{"to"}),

		StaleConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "exportdocs_document_stale_conflicts_total",
			Help: "Total transitions that lost a concurrent compare-and-swap",
		}),

		ExtractionConfidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "exportdocs_document_extraction_confidence",
			Help:    "Confidence of container identifier extraction",
			Buckets: []float64{0.05, 0.25, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1},
		}),

		Suggestions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exportdocs_document_suggestions_total",
			Help: "Total container suggestions by outcome",
		}, []string{"outcome"}), // outcome: "surfaced", "accepted", "dismissed"
	}
}

func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) IncrementInvalidTransition(to string) {
	if m != nil {
		m.InvalidTransitions.WithLabelValues(to).Inc()
	}
}

func (m *Metrics) IncrementStaleConflict() {
	if m != nil {
		m.StaleConflicts.Inc()
	}
}

func (m *Metrics) ObserveExtractionConfidence(confidence float64) {
	if m != nil {
		m.ExtractionConfidence.Observe(confidence)
	}
}

func (m *Metrics) IncrementSuggestion(outcome string) {
	if m != nil {
		m.Suggestions.WithLabelValues(outcome).Inc()
	}
}
