package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for shipment compliance aggregation.
type Metrics struct {
	// Compliance status changes by new status
	StatusChanges *prometheus.CounterVec

	// Recompute latency, including document load and validation
	RecomputeLatency prometheus.Histogram

	// Status cache lookups by result
	CacheLookups *prometheus.CounterVec

	// Shipments created
	ShipmentsCreated prometheus.Counter
}

// New creates a Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the shipment metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exportdocs_shipment_status_changes_total",
			Help: "Total shipment compliance status changes by new status",
		}, []string{"status"}),

		RecomputeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "exportdocs_shipment_recompute_duration_seconds",
			Help:    "Duration of a shipment compliance recompute",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exportdocs_shipment_status_cache_lookups_total",
			Help: "Total compliance status cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss"

		ShipmentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "exportdocs_shipments_created_total",
			Help: "Total number of shipments created",
		}),
	}
}

func (m *Metrics) IncrementStatusChange(status string) {
	if m != nil {
		m.StatusChanges.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ObserveRecomputeLatency(d time.Duration) {
	if m != nil {
		m.RecomputeLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementShipmentsCreated() {
	if m != nil {
		m.ShipmentsCreated.Inc()
	}
}
