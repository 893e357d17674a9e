package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementTransition("DRAFT", "UPLOADED")
		m.IncrementInvalidTransition("ARCHIVED")
		m.IncrementStaleConflict()
		m.ObserveExtractionConfidence(0.9)
		m.IncrementSuggestion("surfaced")
	})
}

func TestTransitionCounter(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncrementTransition("VALIDATED", "COMPLIANCE_OK")
	m.IncrementStaleConflict()

	assert.InDelta(t, 1, testutil.ToFloat64(m.Transitions.WithLabelValues("VALIDATED", "COMPLIANCE_OK")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StaleConflicts), 0)
}
