package audit

import (
	"context"
	"database/sql"
)

// PostgresStore is a durable activity sink for deployments that need the
// trail to outlive the realtime database's retention.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema for reference; applied by deployment migrations.
//
//	CREATE TABLE IF NOT EXISTS activity_log (
//	    id              BIGSERIAL PRIMARY KEY,
//	    entry_type      TEXT NOT NULL,
//	    status          TEXT NOT NULL,
//	    details         TEXT NOT NULL,
//	    driver_id       TEXT,
//	    shipment_id     TEXT,
//	    tracking_number TEXT,
//	    occurred_at     TIMESTAMPTZ NOT NULL
//	);
const insertEntry = `
INSERT INTO activity_log (entry_type, status, details, driver_id, shipment_id, tracking_number, occurred_at)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), to_timestamp($7 / 1000.0))`

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx, insertEntry,
		entry.Type,
		entry.Status,
		entry.Details,
		entry.DriverID,
		entry.ShipmentID,
		entry.TrackingNumber,
		entry.Timestamp,
	)
	return err
}
