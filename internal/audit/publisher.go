package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher captures structured activity entries. Writes are best-effort:
// a failed append is logged and never blocks or rolls back the primary
// operation it describes.
type Publisher struct {
	store  Store
	logger *slog.Logger
}

func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, logger: logger}
}

// Emit appends one entry, stamping the timestamp when the caller left it
// zero. It never returns an error to the caller.
func (p *Publisher) Emit(ctx context.Context, entry Entry) {
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}
	if err := p.store.Append(ctx, entry); err != nil {
		p.logger.ErrorContext(ctx, "failed to log activity",
			"type", entry.Type,
			"status", entry.Status,
			"error", err,
		)
	}
}
