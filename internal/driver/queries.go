package driver

import (
	"context"
	"sort"

	"github.com/lord-william/lalalika-logistics/internal/backend"
	"github.com/lord-william/lalalika-logistics/internal/shipment"
	dErrors "github.com/lord-william/lalalika-logistics/pkg/domain-errors"
)

// Queries serves one-shot reads of a driver's data for request/response
// consumers. The projector covers the live view; these cover stateless
// clients that poll instead of subscribing.
type Queries struct {
	db backend.Database
}

func NewQueries(db backend.Database) *Queries {
	return &Queries{db: db}
}

// Deliveries returns the driver's shipments partitioned into active and
// completed buckets, both in push-key order.
func (q *Queries) Deliveries(ctx context.Context, driverID string) (assigned, completed []shipment.Shipment, err error) {
	matches, err := q.db.QueryOnce(ctx, "shipments", backend.Query{
		OrderBy: "driverId",
		Equals:  driverID,
	})
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable,
			"Unable to load deliveries. Please refresh.")
	}

	assigned = make([]shipment.Shipment, 0, len(matches))
	completed = make([]shipment.Shipment, 0)
	for _, kr := range matches {
		s := shipment.FromRecord(kr.Key, kr.Record)
		if shipment.IsCompleted(s.Status) {
			completed = append(completed, s)
		} else {
			assigned = append(assigned, s)
		}
	}
	return assigned, completed, nil
}

// Reports returns the driver's issue reports, newest first.
func (q *Queries) Reports(ctx context.Context, driverID string) ([]shipment.Report, error) {
	matches, err := q.db.QueryOnce(ctx, "reports", backend.Query{
		OrderBy: "driverId",
		Equals:  driverID,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable,
			"Unable to load reports. Please refresh.")
	}

	reports := make([]shipment.Report, 0, len(matches))
	for _, kr := range matches {
		reports = append(reports, shipment.ReportFromRecord(kr.Key, kr.Record))
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].ReportedAt > reports[j].ReportedAt
	})
	return reports, nil
}
