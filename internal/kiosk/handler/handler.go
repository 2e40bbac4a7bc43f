// Package handler wires the kiosk intake endpoint to the submission service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lord-william/lalalika-logistics/internal/kiosk"
	"github.com/lord-william/lalalika-logistics/internal/platform/middleware"
	"github.com/lord-william/lalalika-logistics/pkg/platform/httputil"
)

// Service defines the interface for kiosk submission operations.
type Service interface {
	Submit(ctx context.Context, form kiosk.Form) (kiosk.Result, error)
}

// Handler wires kiosk endpoints to the submission service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a kiosk handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts kiosk endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/kiosk/shipments", h.handleSubmit)
}

// SubmitRequest mirrors the kiosk form fields.
type SubmitRequest struct {
	SenderName       string `json:"senderName"`
	SenderEmail      string `json:"senderEmail"`
	SenderPhone      string `json:"senderPhone"`
	SenderAddress    string `json:"senderAddress"`
	RecipientName    string `json:"recipientName"`
	RecipientEmail   string `json:"recipientEmail"`
	RecipientPhone   string `json:"recipientPhone"`
	RecipientAddress string `json:"recipientAddress"`

	PackageDescription string `json:"packageDescription"`
	PackageWeight      string `json:"packageWeight"`
	AdditionalNotes    string `json:"additionalNotes"`
}

// SubmitResponse is what the kiosk success view renders.
type SubmitResponse struct {
	ShipmentID     string `json:"shipmentId"`
	TrackingNumber string `json:"trackingNumber"`
	RecipientEmail string `json:"recipientEmail"`
	TrackingLink   string `json:"trackingLink"`
}

// handleSubmit handles POST /api/kiosk/shipments requests.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Submit(ctx, kiosk.Form{
		SenderName:         req.SenderName,
		SenderEmail:        req.SenderEmail,
		SenderPhone:        req.SenderPhone,
		SenderAddress:      req.SenderAddress,
		RecipientName:      req.RecipientName,
		RecipientEmail:     req.RecipientEmail,
		RecipientPhone:     req.RecipientPhone,
		RecipientAddress:   req.RecipientAddress,
		PackageDescription: req.PackageDescription,
		PackageWeight:      req.PackageWeight,
		AdditionalNotes:    req.AdditionalNotes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "kiosk submission rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "kiosk shipment submitted",
		"request_id", requestID,
		"shipment_id", result.ShipmentID,
		"tracking_number", result.TrackingNumber,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, SubmitResponse{
		ShipmentID:     result.ShipmentID,
		TrackingNumber: result.TrackingNumber,
		RecipientEmail: result.RecipientEmail,
		TrackingLink:   result.TrackingLink,
	})
}
