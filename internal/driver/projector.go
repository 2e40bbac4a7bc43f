// Package driver implements the driver dashboard core: the realtime list
// projector plus the delivery completion and issue report flows. Rendering
// is behind the RenderSink interface so the presentation can be swapped
// without touching the logic.
package driver

import (
	"sort"
	"sync"

	"github.com/lord-william/lalalika-logistics/internal/backend"
	"github.com/lord-william/lalalika-logistics/internal/shipment"
)

// RenderSink receives render-ready record lists on every backend push and
// non-blocking notifications on subscription failures.
type RenderSink interface {
	RenderDeliveries(assigned, completed []shipment.Shipment)
	RenderReports(reports []shipment.Report)
	Notify(message string)
}

// Projector subscribes to a driver's shipments and issue reports and
// projects every push into UI buckets. It is a full-replace projection, not
// an incremental diff: record volume per driver is small and push frequency
// low, so rebuilding from scratch eliminates the whole class of diffing
// bugs.
//
// The two subscriptions are independent and may deliver interleaved; nothing
// here assumes one completes before the other.
type Projector struct {
	db   backend.Database
	sink RenderSink

	mu        sync.Mutex
	driverID  string
	cache     map[string]shipment.Shipment
	assigned  []shipment.Shipment
	completed []shipment.Shipment
	reports   []shipment.Report
	detachers []backend.Detach
}

func NewProjector(db backend.Database, sink RenderSink) *Projector {
	if sink == nil {
		sink = noopSink{}
	}
	return &Projector{
		db:    db,
		sink:  sink,
		cache: make(map[string]shipment.Shipment),
	}
}

// noopSink stands in when no presentation is attached, as in the HTTP
// wiring where clients poll snapshots instead of receiving pushes.
type noopSink struct{}

func (noopSink) RenderDeliveries(assigned, completed []shipment.Shipment) {}
func (noopSink) RenderReports(reports []shipment.Report)                 {}
func (noopSink) Notify(message string)                                   {}

// Start subscribes both live queries for the driver. Any previous
// subscriptions are detached first so re-subscribing for a different
// identity never leaks listeners into a dead view.
func (p *Projector) Start(driverID string) error {
	p.Stop()

	p.mu.Lock()
	p.driverID = driverID
	p.mu.Unlock()

	detachShipments, err := p.db.Subscribe("shipments",
		backend.Query{OrderBy: "driverId", Equals: driverID},
		p.onShipments,
		func(error) { p.sink.Notify("Unable to load deliveries. Please refresh.") },
	)
	if err != nil {
		return err
	}

	detachReports, err := p.db.Subscribe("reports",
		backend.Query{OrderBy: "driverId", Equals: driverID},
		p.onReports,
		func(error) { p.sink.Notify("Unable to load reports. Please refresh.") },
	)
	if err != nil {
		detachShipments()
		return err
	}

	p.mu.Lock()
	p.detachers = []backend.Detach{detachShipments, detachReports}
	p.mu.Unlock()
	return nil
}

// Stop detaches both subscriptions. Pushes already delivered keep their
// effect; no further callbacks run once Stop returns.
func (p *Projector) Stop() {
	p.mu.Lock()
	detachers := p.detachers
	p.detachers = nil
	p.mu.Unlock()
	for _, detach := range detachers {
		detach()
	}
}

// onShipments rebuilds the id cache and both buckets from scratch on every
// push. Rebuild and read are serialized behind one mutex; bucket membership
// is a pure function of status.
func (p *Projector) onShipments(snap []backend.KeyedRecord) {
	assigned := make([]shipment.Shipment, 0, len(snap))
	completed := make([]shipment.Shipment, 0)
	cache := make(map[string]shipment.Shipment, len(snap))

	for _, kr := range snap {
		s := shipment.FromRecord(kr.Key, kr.Record)
		cache[s.ID] = s
		if shipment.IsCompleted(s.Status) {
			completed = append(completed, s)
		} else {
			assigned = append(assigned, s)
		}
	}

	p.mu.Lock()
	p.cache = cache
	p.assigned = assigned
	p.completed = completed
	p.mu.Unlock()

	p.sink.RenderDeliveries(assigned, completed)
}

// onReports re-renders the reports list newest-first; ties keep push-key
// order.
func (p *Projector) onReports(snap []backend.KeyedRecord) {
	reports := make([]shipment.Report, 0, len(snap))
	for _, kr := range snap {
		reports = append(reports, shipment.ReportFromRecord(kr.Key, kr.Record))
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].ReportedAt > reports[j].ReportedAt
	})

	p.mu.Lock()
	p.reports = reports
	p.mu.Unlock()

	p.sink.RenderReports(reports)
}

// TrackingFor resolves a delivery id to its tracking number from the
// projection cache, for display denormalization. Empty when unknown.
func (p *Projector) TrackingFor(deliveryID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.cache[deliveryID]; ok {
		return s.TrackingNumber
	}
	return ""
}

// Snapshot returns the latest projection for one-shot consumers.
func (p *Projector) Snapshot() (assigned, completed []shipment.Shipment, reports []shipment.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assigned, p.completed, p.reports
}
