package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for carrier pulls and sync cycles.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	// Carrier statuses that had no canonical mapping
	UnmappedStatus *prometheus.CounterVec

	// Carrier API latencies by carrier and outcome
	CarrierLatency *prometheus.HistogramVec

	// Events appended to timelines by carrier and update method
	EventsAppended *prometheus.CounterVec

	// Shipments processed by sync cycles by outcome
	SyncShipments *prometheus.CounterVec

	// Overall sync cycle latency
	SyncCycleLatency prometheus.Histogram
}

// New creates a Metrics instance registered with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		UnmappedStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "whereis_unmapped_status_total",
			Help: "Carrier status codes without a canonical mapping",
		}, []string{"carrier"}),

		CarrierLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "whereis_carrier_request_duration_seconds",
			Help:    "Duration of carrier tracking calls by carrier and outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"carrier", "outcome"}), // outcome: "ok" or a carrier error category

		EventsAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "whereis_events_appended_total",
			Help: "Events appended to shipment timelines",
		}, []string{"carrier", "method"}),

		SyncShipments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "whereis_sync_shipments_total",
			Help: "Shipments processed by sync cycles by outcome",
		}, []string{"outcome"}), // outcome: "updated", "unchanged", "failed"

		SyncCycleLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "whereis_sync_cycle_duration_seconds",
			Help:    "Duration of a full sync cycle",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

// IncrementUnmapped records a status code with no canonical mapping.
func (m *Metrics) IncrementUnmapped(carrier string) {
	if m != nil {
		m.UnmappedStatus.WithLabelValues(carrier).Inc()
	}
}

// ObserveCarrierLatency records the duration of a carrier call.
func (m *Metrics) ObserveCarrierLatency(carrier, outcome string, d time.Duration) {
	if m != nil {
		m.CarrierLatency.WithLabelValues(carrier, outcome).Observe(d.Seconds())
	}
}

// AddEventsAppended records events appended to a timeline.
func (m *Metrics) AddEventsAppended(carrier, method string, n int) {
	if m != nil && n > 0 {
		m.EventsAppended.WithLabelValues(carrier, method).Add(float64(n))
	}
}

// IncrementSyncShipment records the outcome of one shipment in a sync cycle.
func (m *Metrics) IncrementSyncShipment(outcome string) {
	if m != nil {
		m.SyncShipments.WithLabelValues(outcome).Inc()
	}
}

// ObserveSyncCycle records the duration of a sync cycle.
func (m *Metrics) ObserveSyncCycle(d time.Duration) {
	if m != nil {
		m.SyncCycleLatency.Observe(d.Seconds())
	}
}
