package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lord-william/lalalika-logistics/internal/audit"
	"github.com/lord-william/lalalika-logistics/internal/backend"
	"github.com/lord-william/lalalika-logistics/internal/platform/metrics"
	"github.com/lord-william/lalalika-logistics/internal/shipment"
	dErrors "github.com/lord-william/lalalika-logistics/pkg/domain-errors"
	"github.com/lord-william/lalalika-logistics/pkg/platform/sentinel"
)

// Driver identifies the acting driver for the write flows. Name and email
// come from the session profile and are denormalized into issue reports.
type Driver struct {
	ID    string
	Name  string
	Email string
}

// CompletionInput captures a completion outcome: delivered with a signature,
// or failed with a reason.
type CompletionInput struct {
	DeliveryID    string
	Status        string
	FailureReason string
	// SignaturePNG is the encoded signature image; required for delivered.
	SignaturePNG []byte
}

// Flows executes the driver's state-changing actions against the backend.
type Flows struct {
	client    *backend.Client
	projector *Projector
	activity  *audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewFlows(client *backend.Client, projector *Projector, activity *audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Flows {
	return &Flows{
		client:    client,
		projector: projector,
		activity:  activity,
		metrics:   m,
		logger:    logger,
	}
}

// CompleteDelivery writes a completion outcome. For delivered, the signature
// is uploaded before any shipment write so a failed upload aborts the whole
// transition; the update then touches only status, updatedAt, and
// completionDetails. One activity entry follows, best-effort.
func (f *Flows) CompleteDelivery(ctx context.Context, drv Driver, input CompletionInput) error {
	if input.DeliveryID == "" {
		return dErrors.New(dErrors.CodeValidation, "No delivery selected.")
	}
	status := input.Status
	if status == "" {
		status = shipment.StatusDelivered
	}
	if status != shipment.StatusDelivered && status != shipment.StatusFailed {
		return dErrors.New(dErrors.CodeValidation, "Unknown completion status.")
	}

	failed := status == shipment.StatusFailed
	reason := strings.TrimSpace(input.FailureReason)
	if failed && reason == "" {
		return dErrors.New(dErrors.CodeValidation,
			"Please provide a reason for the failed delivery.")
	}
	if !failed && len(input.SignaturePNG) == 0 {
		return dErrors.New(dErrors.CodeValidation,
			"Please capture the recipient signature.")
	}

	now := time.Now().UnixMilli()
	details := backend.Record{
		"confirmedBy":   drv.ID,
		"confirmedAt":   now,
		"failureReason": nil,
		"signatureUrl":  nil,
	}
	if failed {
		details["failureReason"] = reason
	} else {
		// Timestamped path so a retry after a partial failure never
		// collides with the earlier upload.
		path := fmt.Sprintf("signatures/%s/%s-%d.png", drv.ID, input.DeliveryID, now)
		if err := f.client.Blobs.Upload(ctx, path, input.SignaturePNG, "image/png"); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable,
				"Failed to update delivery status. Please try again.")
		}
		url, err := f.client.Blobs.URL(ctx, path)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable,
				"Failed to update delivery status. Please try again.")
		}
		details["signatureUrl"] = url
	}

	updates := backend.Record{
		"status":            status,
		"updatedAt":         now,
		"completionDetails": details,
	}
	if err := f.client.DB.Update(ctx, "shipments/"+input.DeliveryID, updates); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "Delivery not found.")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable,
			"Failed to update delivery status. Please try again.")
	}

	f.activity.Emit(ctx, audit.Entry{
		Type:      audit.TypeDelivery,
		Status:    status,
		Details:   fmt.Sprintf("Delivery %s marked as %s", input.DeliveryID, status),
		DriverID:  drv.ID,
		Timestamp: now,
	})
	f.metrics.IncDeliveriesCompleted(status)

	f.logger.InfoContext(ctx, "delivery completion recorded",
		"delivery_id", input.DeliveryID,
		"driver_id", drv.ID,
		"status", status,
	)
	return nil
}
