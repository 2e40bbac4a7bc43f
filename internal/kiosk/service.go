// Package kiosk implements the walk-in intake surface: tracking number
// generation and the shipment submission pipeline. The kiosk is public
// hardware, so writes ride on an anonymous identity.
package kiosk

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lord-william/lalalika-logistics/internal/audit"
	"github.com/lord-william/lalalika-logistics/internal/backend"
	"github.com/lord-william/lalalika-logistics/internal/platform/metrics"
	"github.com/lord-william/lalalika-logistics/internal/shipment"
	dErrors "github.com/lord-william/lalalika-logistics/pkg/domain-errors"
)

// Form carries the raw kiosk form fields. All values are trimmed before
// validation.
type Form struct {
	SenderName       string
	SenderEmail      string
	SenderPhone      string
	SenderAddress    string
	RecipientName    string
	RecipientEmail   string
	RecipientPhone   string
	RecipientAddress string

	PackageDescription string
	PackageWeight      string
	AdditionalNotes    string
}

func (f *Form) normalize() {
	fields := []*string{
		&f.SenderName, &f.SenderEmail, &f.SenderPhone, &f.SenderAddress,
		&f.RecipientName, &f.RecipientEmail, &f.RecipientPhone, &f.RecipientAddress,
		&f.PackageDescription, &f.PackageWeight, &f.AdditionalNotes,
	}
	for _, field := range fields {
		*field = strings.TrimSpace(*field)
	}
}

func (f Form) validate() error {
	required := []string{
		f.SenderName, f.SenderEmail, f.SenderPhone, f.SenderAddress,
		f.RecipientName, f.RecipientEmail, f.RecipientPhone, f.RecipientAddress,
		f.PackageDescription,
	}
	for _, v := range required {
		if v == "" {
			return dErrors.New(dErrors.CodeValidation,
				"Please complete all required fields before submitting.")
		}
	}
	if f.PackageWeight != "" {
		if _, err := strconv.ParseFloat(f.PackageWeight, 64); err != nil {
			return dErrors.New(dErrors.CodeValidation,
				"Package weight must be a number.")
		}
	}
	return nil
}

// Result is what the success view needs: the tracking number and a shareable
// tracking link.
type Result struct {
	ShipmentID     string
	TrackingNumber string
	RecipientEmail string
	TrackingLink   string
}

// Service is the shipment submission pipeline. Steps after validation run
// sequentially and never retry: a failure anywhere aborts the submission and
// surfaces the message for a manual restart. The shipment write is the last
// backend-visible step, so no partial shipment is ever left behind.
type Service struct {
	client    *backend.Client
	generator *Generator
	activity  *audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(client *backend.Client, generator *Generator, activity *audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		client:    client,
		generator: generator,
		activity:  activity,
		metrics:   m,
		logger:    logger,
	}
}

// Submit validates the form, ensures an identity, generates a tracking
// number, and writes the shipment with its initial timeline entry plus one
// activity entry. Callers must guard against double submission; an in-flight
// pipeline is not interruptible.
func (s *Service) Submit(ctx context.Context, form Form) (Result, error) {
	form.normalize()
	if err := form.validate(); err != nil {
		return Result{}, err
	}

	if err := s.ensureAnonymousAuth(ctx); err != nil {
		return Result{}, err
	}

	trackingNumber, err := s.generator.Generate(ctx)
	if err != nil {
		return Result{}, err
	}

	shipmentID, err := s.client.DB.Push(ctx, "shipments")
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeUnavailable,
			"Failed to submit shipment. Please try again.")
	}

	submittedAt := time.Now().UnixMilli()
	rec := backend.Record{
		"id":             shipmentID,
		"trackingNumber": trackingNumber,
		"status":         shipment.StatusPendingKiosk,
		"source":         "kiosk",
		"createdAt":      submittedAt,
		"updatedAt":      submittedAt,
		"sender": backend.Record{
			"name":    form.SenderName,
			"email":   form.SenderEmail,
			"phone":   form.SenderPhone,
			"address": form.SenderAddress,
		},
		"recipient": backend.Record{
			"name":    form.RecipientName,
			"email":   form.RecipientEmail,
			"phone":   form.RecipientPhone,
			"address": form.RecipientAddress,
		},
		"package": packageRecord(form),
		"timeline": []any{backend.Record{
			"timestamp": submittedAt,
			"status":    shipment.StatusPendingKiosk,
			"label":     "Package submitted at kiosk",
			"actor":     "customer",
		}},
		"kioskSubmission": backend.Record{
			"submittedBy": form.SenderName,
			"submittedAt": submittedAt,
		},
	}

	if err := s.client.DB.Set(ctx, "shipments/"+shipmentID, rec); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeUnavailable,
			"Failed to submit shipment. Please try again.")
	}

	s.activity.Emit(ctx, audit.Entry{
		Type:           audit.TypeShipment,
		Status:         shipment.StatusPendingKiosk,
		Details:        "Kiosk shipment created: " + trackingNumber,
		ShipmentID:     shipmentID,
		TrackingNumber: trackingNumber,
		Timestamp:      submittedAt,
	})
	s.metrics.IncShipmentsCreated()

	s.logger.InfoContext(ctx, "kiosk shipment created",
		"shipment_id", shipmentID,
		"tracking_number", trackingNumber,
	)

	return Result{
		ShipmentID:     shipmentID,
		TrackingNumber: trackingNumber,
		RecipientEmail: form.RecipientEmail,
		TrackingLink:   "track.html?number=" + url.QueryEscape(trackingNumber),
	}, nil
}

func packageRecord(form Form) backend.Record {
	rec := backend.Record{
		"description": form.PackageDescription,
		"weight":      nil,
		"notes":       nil,
	}
	if form.PackageWeight != "" {
		// Validated earlier; a parse failure here is unreachable.
		w, _ := strconv.ParseFloat(form.PackageWeight, 64)
		rec["weight"] = w
	}
	if form.AdditionalNotes != "" {
		rec["notes"] = form.AdditionalNotes
	}
	return rec
}

// ensureAnonymousAuth makes sure some identity backs the write, creating an
// anonymous one when nothing is signed in. The backend's write rules reject
// identity-less requests even from the kiosk.
func (s *Service) ensureAnonymousAuth(ctx context.Context) error {
	if _, ok := s.client.Auth.CurrentIdentity(); ok {
		return nil
	}
	if _, err := s.client.Auth.SignInAnonymously(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable,
			"Unable to connect securely. Please refresh the page and try again.")
	}
	return nil
}
