package audit

import (
	"context"
	"log/slog"
)

// Worker drains activity entries from a channel into a durable store. It
// keeps slow sinks (postgres) off the request path.
type Worker struct {
	store  Store
	inbox  <-chan Entry
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Entry, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run consumes until the context is cancelled. Append failures are logged
// and skipped; the trail is best-effort by contract.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.store.Append(ctx, entry); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist activity entry",
					"type", entry.Type,
					"error", err,
				)
			}
		}
	}
}
