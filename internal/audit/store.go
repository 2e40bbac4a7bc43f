package audit

import (
	"context"

	"github.com/lord-william/lalalika-logistics/internal/backend"
)

// Store is an append-only activity sink so tests and deployments can swap
// destinations without touching the flows.
type Store interface {
	Append(ctx context.Context, entry Entry) error
}

// DatabaseStore appends entries under the activity collection of the backend
// database, one push key per entry.
type DatabaseStore struct {
	db backend.Database
}

func NewDatabaseStore(db backend.Database) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) Append(ctx context.Context, entry Entry) error {
	key, err := s.db.Push(ctx, "activity")
	if err != nil {
		return err
	}
	rec := backend.Record{
		"type":      entry.Type,
		"status":    entry.Status,
		"details":   entry.Details,
		"timestamp": entry.Timestamp,
	}
	if entry.DriverID != "" {
		rec["driverId"] = entry.DriverID
	}
	if entry.ShipmentID != "" {
		rec["shipmentId"] = entry.ShipmentID
	}
	if entry.TrackingNumber != "" {
		rec["trackingNumber"] = entry.TrackingNumber
	}
	return s.db.Set(ctx, "activity/"+key, rec)
}

// ChannelStore hands entries to a background worker. Appends never block:
// when the inbox is full the entry is dropped, which is acceptable for a
// best-effort audit trail.
type ChannelStore struct {
	inbox chan<- Entry
}

func NewChannelStore(inbox chan<- Entry) *ChannelStore {
	return &ChannelStore{inbox: inbox}
}

func (s *ChannelStore) Append(_ context.Context, entry Entry) error {
	select {
	case s.inbox <- entry:
	default:
	}
	return nil
}

// MultiStore fans one entry out to several sinks, returning the first error.
type MultiStore []Store

func (m MultiStore) Append(ctx context.Context, entry Entry) error {
	var first error
	for _, s := range m {
		if err := s.Append(ctx, entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}
