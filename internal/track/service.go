// Package track is the public tracking lookup: resolve a tracking number to
// its shipment plus dispatch-side tracking updates, one-shot or live.
package track

import (
	"context"
	"log/slog"
	"sort"

	"github.com/lord-william/lalalika-logistics/internal/backend"
	"github.com/lord-william/lalalika-logistics/internal/platform/metrics"
	"github.com/lord-william/lalalika-logistics/internal/shipment"
	dErrors "github.com/lord-william/lalalika-logistics/pkg/domain-errors"
)

// Update is one dispatch-side tracking event attached to a shipment.
type Update struct {
	ID        string
	Timestamp int64
	Status    string
	Label     string
	Location  string
}

// Result is a shipment with its tracking updates, newest first.
type Result struct {
	Shipment shipment.Shipment
	Updates  []Update
}

// Stats is the dashboard header summary.
type Stats struct {
	ActiveShipments int
	OpenReports     int
}

type Service struct {
	db      backend.Database
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(db backend.Database, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{db: db, metrics: m, logger: logger}
}

// Lookup resolves a tracking number. Multiple matches should not exist
// (creation enforces best-effort uniqueness); the first in push-key order
// wins, mirroring how existing stored data is read.
func (s *Service) Lookup(ctx context.Context, trackingNumber string) (Result, error) {
	matches, err := s.db.QueryOnce(ctx, "shipments", backend.Query{
		OrderBy: "trackingNumber",
		Equals:  trackingNumber,
	})
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeUnavailable,
			"Unable to look up tracking information. Please try again.")
	}
	if len(matches) == 0 {
		return Result{}, dErrors.New(dErrors.CodeNotFound,
			"No shipment found with this tracking number")
	}

	result, err := s.buildResult(ctx, matches[0])
	if err != nil {
		return Result{}, err
	}
	s.metrics.IncTrackingLookups()
	return result, nil
}

// Watch delivers a fresh Result whenever the matching shipment changes, or
// nil when the tracking number matches nothing. The caller must detach on
// teardown.
func (s *Service) Watch(trackingNumber string, cb func(*Result)) (backend.Detach, error) {
	return s.db.Subscribe("shipments",
		backend.Query{OrderBy: "trackingNumber", Equals: trackingNumber},
		func(snap []backend.KeyedRecord) {
			if len(snap) == 0 {
				cb(nil)
				return
			}
			result, err := s.buildResult(context.Background(), snap[0])
			if err != nil {
				s.logger.Error("tracking watch rebuild failed",
					"tracking_number", trackingNumber, "error", err)
				return
			}
			cb(&result)
		},
		func(err error) {
			s.logger.Error("tracking subscription error",
				"tracking_number", trackingNumber, "error", err)
		},
	)
}

func (s *Service) buildResult(ctx context.Context, kr backend.KeyedRecord) (Result, error) {
	sh := shipment.FromRecord(kr.Key, kr.Record)
	// Older records carry their push key in the id field; prefer it so the
	// tracking updates path matches what dispatch wrote.
	updatesKey := sh.ID
	if id, ok := kr.Record["id"].(string); ok && id != "" {
		updatesKey = id
	}

	raw, err := s.db.QueryOnce(ctx, "tracking/"+updatesKey, backend.Query{})
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeUnavailable,
			"Unable to look up tracking information. Please try again.")
	}

	updates := make([]Update, 0, len(raw))
	for _, u := range raw {
		get := func(key string) string {
			v, _ := u.Record[key].(string)
			return v
		}
		ts, _ := u.Record["timestamp"].(int64)
		if f, ok := u.Record["timestamp"].(float64); ok {
			ts = int64(f)
		}
		updates = append(updates, Update{
			ID:        u.Key,
			Timestamp: ts,
			Status:    get("status"),
			Label:     get("label"),
			Location:  get("location"),
		})
	}
	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].Timestamp > updates[j].Timestamp
	})

	return Result{Shipment: sh, Updates: updates}, nil
}

// DashboardStats counts in-transit shipments and open issue reports for the
// dashboard header.
func (s *Service) DashboardStats(ctx context.Context) (Stats, error) {
	shipments, err := s.db.QueryOnce(ctx, "shipments", backend.Query{
		OrderBy: "status",
		Equals:  shipment.StatusInTransit,
	})
	if err != nil {
		return Stats{}, dErrors.Wrap(err, dErrors.CodeUnavailable,
			"Failed to load dashboard data")
	}
	reports, err := s.db.QueryOnce(ctx, "reports", backend.Query{
		OrderBy: "status",
		Equals:  shipment.StatusReportOpen,
	})
	if err != nil {
		return Stats{}, dErrors.Wrap(err, dErrors.CodeUnavailable,
			"Failed to load dashboard data")
	}
	return Stats{
		ActiveShipments: len(shipments),
		OpenReports:     len(reports),
	}, nil
}
