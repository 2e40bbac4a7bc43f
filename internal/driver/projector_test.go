package driver

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lord-william/lalalika-logistics/internal/backend"
	"github.com/lord-william/lalalika-logistics/internal/backend/memory"
	"github.com/lord-william/lalalika-logistics/internal/shipment"
)

// fakeSink records every render call for inspection.
type fakeSink struct {
	mu            sync.Mutex
	assigned      []shipment.Shipment
	completed     []shipment.Shipment
	reports       []shipment.Report
	renderCount   int
	notifications []string
}

func (f *fakeSink) RenderDeliveries(assigned, completed []shipment.Shipment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigned = assigned
	f.completed = completed
	f.renderCount++
}

func (f *fakeSink) RenderReports(reports []shipment.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = reports
}

func (f *fakeSink) Notify(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, message)
}

type ProjectorSuite struct {
	suite.Suite
	db        *memory.Database
	sink      *fakeSink
	projector *Projector
}

func (s *ProjectorSuite) SetupTest() {
	s.db = memory.NewDatabase()
	s.sink = &fakeSink{}
	s.projector = NewProjector(s.db, s.sink)
}

func TestProjectorSuite(t *testing.T) {
	suite.Run(t, new(ProjectorSuite))
}

func (s *ProjectorSuite) setShipment(key string, rec backend.Record) {
	err := s.db.Set(context.Background(), "shipments/"+key, rec)
	s.Require().NoError(err)
}

func (s *ProjectorSuite) setReport(key string, rec backend.Record) {
	err := s.db.Set(context.Background(), "reports/"+key, rec)
	s.Require().NoError(err)
}

// TestBucketPartition tests that bucket membership follows completion status.
func (s *ProjectorSuite) TestBucketPartition() {
	s.setShipment("ship-1", backend.Record{"driverId": "drv-1", "status": "out_for_delivery"})
	s.setShipment("ship-2", backend.Record{"driverId": "drv-1", "status": "delivered"})
	s.setShipment("ship-3", backend.Record{"driverId": "drv-1", "status": "failed"})
	s.setShipment("ship-4", backend.Record{"driverId": "drv-1"})

	err := s.projector.Start("drv-1")
	s.Require().NoError(err)
	defer s.projector.Stop()

	assigned, completed, _ := s.projector.Snapshot()
	s.Len(assigned, 2, "active and status-less shipments stay assigned")
	s.Len(completed, 2, "delivered and failed shipments move to completed")

	completedStatuses := []string{completed[0].Status, completed[1].Status}
	s.ElementsMatch([]string{"delivered", "failed"}, completedStatuses)
}

// TestFullReplaceProjection tests that every push rebuilds the whole view.
func (s *ProjectorSuite) TestFullReplaceProjection() {
	s.setShipment("ship-1", backend.Record{"driverId": "drv-1", "status": "out_for_delivery"})

	err := s.projector.Start("drv-1")
	s.Require().NoError(err)
	defer s.projector.Stop()

	assigned, completed, _ := s.projector.Snapshot()
	s.Len(assigned, 1)
	s.Empty(completed)

	// Completing the delivery moves it between buckets on the next push.
	err = s.db.Update(context.Background(), "shipments/ship-1", backend.Record{"status": "delivered"})
	s.Require().NoError(err)

	assigned, completed, _ = s.projector.Snapshot()
	s.Empty(assigned)
	s.Len(completed, 1)
}

// TestDriverScoping tests that another driver's records never appear.
func (s *ProjectorSuite) TestDriverScoping() {
	s.setShipment("ship-1", backend.Record{"driverId": "drv-1", "status": "in_transit"})
	s.setShipment("ship-2", backend.Record{"driverId": "drv-2", "status": "in_transit"})

	err := s.projector.Start("drv-1")
	s.Require().NoError(err)
	defer s.projector.Stop()

	assigned, _, _ := s.projector.Snapshot()
	s.Require().Len(assigned, 1)
	s.Equal("ship-1", assigned[0].ID)
}

// TestReportOrdering tests newest-first ordering on reportedAt.
func (s *ProjectorSuite) TestReportOrdering() {
	s.setReport("rep-1", backend.Record{"driverId": "drv-1", "reportedAt": int64(100)})
	s.setReport("rep-2", backend.Record{"driverId": "drv-1", "reportedAt": int64(300)})
	s.setReport("rep-3", backend.Record{"driverId": "drv-1", "reportedAt": int64(200)})

	err := s.projector.Start("drv-1")
	s.Require().NoError(err)
	defer s.projector.Stop()

	_, _, reports := s.projector.Snapshot()
	s.Require().Len(reports, 3)
	s.Equal(int64(300), reports[0].ReportedAt)
	s.Equal(int64(200), reports[1].ReportedAt)
	s.Equal(int64(100), reports[2].ReportedAt)
}

// TestTrackingFor tests delivery-id resolution from the projection cache.
func (s *ProjectorSuite) TestTrackingFor() {
	s.setShipment("ship-1", backend.Record{
		"driverId":       "drv-1",
		"trackingNumber": "LLK123456789",
	})

	err := s.projector.Start("drv-1")
	s.Require().NoError(err)
	defer s.projector.Stop()

	s.Equal("LLK123456789", s.projector.TrackingFor("ship-1"))
	s.Equal("", s.projector.TrackingFor("unknown"))
}

// TestNoSink tests that a projector without a presentation still projects.
func (s *ProjectorSuite) TestNoSink() {
	s.setShipment("ship-1", backend.Record{
		"driverId":       "drv-1",
		"trackingNumber": "LLK123456789",
	})

	p := NewProjector(s.db, nil)
	err := p.Start("drv-1")
	s.Require().NoError(err)
	defer p.Stop()

	s.Equal("LLK123456789", p.TrackingFor("ship-1"))
}

// TestRestart tests that re-subscribing detaches the old listeners.
func (s *ProjectorSuite) TestRestart() {
	s.setShipment("ship-1", backend.Record{"driverId": "drv-1", "status": "in_transit"})

	err := s.projector.Start("drv-1")
	s.Require().NoError(err)
	err = s.projector.Start("drv-2")
	s.Require().NoError(err)
	defer s.projector.Stop()

	before := s.sink.renderCount

	// A drv-1 write must not reach the sink after the switch to drv-2.
	s.setShipment("ship-2", backend.Record{"driverId": "drv-1", "status": "in_transit"})

	// The drv-2 subscription still fires on the shipments collection, but
	// the snapshot stays empty.
	s.GreaterOrEqual(s.sink.renderCount, before)
	assigned, completed, _ := s.projector.Snapshot()
	s.Empty(assigned)
	s.Empty(completed)
}

// TestStop tests that Stop halts delivery.
func (s *ProjectorSuite) TestStop() {
	err := s.projector.Start("drv-1")
	s.Require().NoError(err)
	s.projector.Stop()

	before := s.sink.renderCount
	s.setShipment("ship-1", backend.Record{"driverId": "drv-1"})
	s.Equal(before, s.sink.renderCount)
}
