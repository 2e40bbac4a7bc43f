// Package handler exposes the public tracking lookup and dashboard stats.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lord-william/lalalika-logistics/internal/platform/middleware"
	"github.com/lord-william/lalalika-logistics/internal/shipment"
	"github.com/lord-william/lalalika-logistics/internal/track"
	dErrors "github.com/lord-william/lalalika-logistics/pkg/domain-errors"
	"github.com/lord-william/lalalika-logistics/pkg/platform/httputil"
)

// Service defines the interface for tracking operations.
type Service interface {
	Lookup(ctx context.Context, trackingNumber string) (track.Result, error)
	DashboardStats(ctx context.Context) (track.Stats, error)
}

// Handler wires the public tracking endpoints to the tracking service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a tracking handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts tracking endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/track/{number}", h.handleLookup)
	r.Get("/api/stats", h.handleStats)
}

// ShipmentView is the public projection of a shipment. Contact details are
// reduced to names; the tracking page is unauthenticated.
type ShipmentView struct {
	TrackingNumber string       `json:"trackingNumber"`
	Status         string       `json:"status"`
	StatusLabel    string       `json:"statusLabel"`
	Route          string       `json:"route"`
	SenderName     string       `json:"senderName"`
	RecipientName  string       `json:"recipientName"`
	CreatedAt      int64        `json:"createdAt"`
	Updates        []UpdateView `json:"updates"`
}

// UpdateView is one tracking event row.
type UpdateView struct {
	Timestamp int64  `json:"timestamp"`
	Status    string `json:"status"`
	Label     string `json:"label"`
	Location  string `json:"location"`
}

// StatsResponse is the dashboard header summary.
type StatsResponse struct {
	ActiveShipments int `json:"activeShipments"`
	OpenReports     int `json:"openReports"`
}

// handleLookup handles GET /api/track/{number} requests.
func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number := chi.URLParam(r, "number")
	if number == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Please enter a tracking number."))
		return
	}

	result, err := h.service.Lookup(ctx, number)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "tracking lookup failed",
				"request_id", middleware.GetRequestID(ctx),
				"tracking_number", number,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toView(result))
}

// handleStats handles GET /api/stats requests.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.DashboardStats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "dashboard stats failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StatsResponse{
		ActiveShipments: stats.ActiveShipments,
		OpenReports:     stats.OpenReports,
	})
}

func toView(result track.Result) ShipmentView {
	sh := result.Shipment
	view := ShipmentView{
		TrackingNumber: sh.TrackingNumber,
		Status:         sh.Status,
		StatusLabel:    shipment.StatusLabel(sh.Status),
		Route:          shipment.RoutePath(sh),
		SenderName:     sh.Sender.Name,
		RecipientName:  sh.Recipient.Name,
		CreatedAt:      sh.CreatedAt,
		Updates:        make([]UpdateView, 0, len(result.Updates)),
	}
	for _, u := range result.Updates {
		view.Updates = append(view.Updates, UpdateView{
			Timestamp: u.Timestamp,
			Status:    u.Status,
			Label:     u.Label,
			Location:  u.Location,
		})
	}
	return view
}
