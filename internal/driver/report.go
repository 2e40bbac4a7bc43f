package driver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lord-william/lalalika-logistics/internal/audit"
	"github.com/lord-william/lalalika-logistics/internal/backend"
	"github.com/lord-william/lalalika-logistics/internal/shipment"
	dErrors "github.com/lord-william/lalalika-logistics/pkg/domain-errors"
)

// IssueTypes is the fixed list offered by the report form, in display order.
var IssueTypes = []string{
	"traffic",
	"vehicle_breakdown",
	"damaged_package",
	"wrong_address",
	"customer_unavailable",
	"other",
}

// Photo is an optional attachment to an issue report.
type Photo struct {
	Name string
	Data []byte
}

// ReportInput captures a structured problem report for one delivery.
type ReportInput struct {
	DeliveryID      string
	IssueType       string
	Description     string
	NeedsAssistance bool
	Photo           *Photo
}

// SubmitReport uploads the optional photo first (a failed upload aborts the
// submission, so a report is never written without its attached photo),
// writes the report as open, then appends one activity entry, best-effort.
// The shipment's tracking number is denormalized for display convenience,
// from the projection cache or a direct shipment read.
func (f *Flows) SubmitReport(ctx context.Context, drv Driver, input ReportInput) (string, error) {
	if drv.ID == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "User not authenticated.")
	}
	if input.DeliveryID == "" {
		return "", dErrors.New(dErrors.CodeValidation, "Please select a delivery.")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return "", dErrors.New(dErrors.CodeValidation,
			"Please provide a description of the issue.")
	}
	issueType := input.IssueType
	if issueType == "" {
		issueType = "other"
	}

	now := time.Now().UnixMilli()

	var photoURL any
	if input.Photo != nil && len(input.Photo.Data) > 0 {
		path := fmt.Sprintf("reports/%s/%s-%d-%s", drv.ID, input.DeliveryID, now, input.Photo.Name)
		if err := f.client.Blobs.Upload(ctx, path, input.Photo.Data, ""); err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeUnavailable,
				"Unable to upload photo. Please try again.")
		}
		url, err := f.client.Blobs.URL(ctx, path)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeUnavailable,
				"Unable to upload photo. Please try again.")
		}
		photoURL = url
	}

	reportID, err := f.client.DB.Push(ctx, "reports")
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable,
			"Failed to submit report. Please try again.")
	}

	var deliveryTracking any
	if tracking := f.trackingFor(ctx, input.DeliveryID); tracking != "" {
		deliveryTracking = tracking
	}

	rec := backend.Record{
		"deliveryId":       input.DeliveryID,
		"driverId":         drv.ID,
		"driverName":       drv.Name,
		"driverEmail":      drv.Email,
		"issueType":        issueType,
		"description":      description,
		"needsAssistance":  input.NeedsAssistance,
		"photoUrl":         photoURL,
		"status":           shipment.StatusReportOpen,
		"reportedAt":       now,
		"deliveryTracking": deliveryTracking,
	}
	if err := f.client.DB.Set(ctx, "reports/"+reportID, rec); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable,
			"Failed to submit report. Please try again.")
	}

	f.activity.Emit(ctx, audit.Entry{
		Type:      audit.TypeIssue,
		Status:    shipment.StatusReportOpen,
		Details:   "Issue reported for delivery " + input.DeliveryID,
		DriverID:  drv.ID,
		Timestamp: now,
	})
	f.metrics.IncReportsSubmitted()

	f.logger.InfoContext(ctx, "issue report submitted",
		"report_id", reportID,
		"delivery_id", input.DeliveryID,
		"driver_id", drv.ID,
	)
	return reportID, nil
}

// trackingFor prefers the live projection cache and falls back to a direct
// shipment read, so reports carry the tracking number even when no
// projection is running for this driver (the HTTP surface never starts one).
func (f *Flows) trackingFor(ctx context.Context, deliveryID string) string {
	if tracking := f.projector.TrackingFor(deliveryID); tracking != "" {
		return tracking
	}
	rec, err := f.client.DB.Get(ctx, "shipments/"+deliveryID)
	if err != nil {
		return ""
	}
	return shipment.FromRecord(deliveryID, rec).TrackingNumber
}
