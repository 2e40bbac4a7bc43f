package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil receiver
// is valid and counts nothing, so tests can pass nil.
type Metrics struct {
	ShipmentsCreated    prometheus.Counter
	DeliveriesCompleted *prometheus.CounterVec
	ReportsSubmitted    prometheus.Counter
	TrackingLookups     prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ShipmentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lalalika_shipments_created_total",
			Help: "Total number of shipments created at the kiosk",
		}),
		DeliveriesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lalalika_deliveries_completed_total",
			Help: "Total number of delivery completions by outcome",
		}, []string{"status"}),
		ReportsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lalalika_reports_submitted_total",
			Help: "Total number of driver issue reports submitted",
		}),
		TrackingLookups: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lalalika_tracking_lookups_total",
			Help: "Total number of public tracking lookups",
		}),
	}
}

func (m *Metrics) IncShipmentsCreated() {
	if m == nil {
		return
	}
	m.ShipmentsCreated.Inc()
}

func (m *Metrics) IncDeliveriesCompleted(status string) {
	if m == nil {
		return
	}
	m.DeliveriesCompleted.WithLabelValues(status).Inc()
}

func (m *Metrics) IncReportsSubmitted() {
	if m == nil {
		return
	}
	m.ReportsSubmitted.Inc()
}

func (m *Metrics) IncTrackingLookups() {
	if m == nil {
		return
	}
	m.TrackingLookups.Inc()
}
