// Package handler wires the driver API: login, delivery lists, completion,
// and issue reports. Everything but login sits behind bearer-token auth.
package handler

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lord-william/lalalika-logistics/internal/backend"
	"github.com/lord-william/lalalika-logistics/internal/driver"
	"github.com/lord-william/lalalika-logistics/internal/platform/middleware"
	"github.com/lord-william/lalalika-logistics/internal/session"
	"github.com/lord-william/lalalika-logistics/internal/shipment"
	dErrors "github.com/lord-william/lalalika-logistics/pkg/domain-errors"
	"github.com/lord-william/lalalika-logistics/pkg/platform/httputil"
)

// accessTokenTTL bounds a driver session; re-login is cheap from the app.
const accessTokenTTL = 12 * time.Hour

// Gate defines the authentication surface the login endpoint needs.
type Gate interface {
	LoginDriver(ctx context.Context, email, password string) (backend.Identity, session.Profile, error)
}

// TokenIssuer mints driver access tokens after a successful login.
type TokenIssuer interface {
	GenerateAccessToken(driverID, driverName, driverEmail string, expiresIn time.Duration) (string, error)
}

// Service defines the interface for driver operations.
type Service interface {
	Deliveries(ctx context.Context, driverID string) (assigned, completed []shipment.Shipment, err error)
	Reports(ctx context.Context, driverID string) ([]shipment.Report, error)
	CompleteDelivery(ctx context.Context, drv driver.Driver, input driver.CompletionInput) error
	SubmitReport(ctx context.Context, drv driver.Driver, input driver.ReportInput) (string, error)
}

// Handler wires driver endpoints to the session gate and driver service.
type Handler struct {
	gate    Gate
	tokens  TokenIssuer
	service Service
	logger  *slog.Logger
}

// New constructs a driver handler with its dependencies.
func New(gate Gate, tokens TokenIssuer, service Service, logger *slog.Logger) *Handler {
	return &Handler{
		gate:    gate,
		tokens:  tokens,
		service: service,
		logger:  logger,
	}
}

// Register mounts driver endpoints on the router. requireAuth guards every
// route except login.
func (h *Handler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/api/driver/login", h.handleLogin)
	r.Group(func(pr chi.Router) {
		pr.Use(requireAuth)
		pr.Get("/api/driver/deliveries", h.handleDeliveries)
		pr.Post("/api/driver/deliveries/{id}/completion", h.handleCompletion)
		pr.Post("/api/driver/reports", h.handleSubmitReport)
	})
}

// LoginRequest carries driver credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the access token plus the resolved profile.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	DriverID    string `json:"driverId"`
	DriverName  string `json:"driverName"`
	DriverEmail string `json:"driverEmail"`
}

// handleLogin handles POST /api/driver/login requests.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ident, profile, err := h.gate.LoginDriver(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "driver login rejected",
			"request_id", requestID,
			"email", req.Email,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	name := profile.DisplayName()
	token, err := h.tokens.GenerateAccessToken(ident.UID, name, profile.Email, accessTokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to mint access token",
			"request_id", requestID,
			"driver_id", ident.UID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "login failed"))
		return
	}

	h.logger.InfoContext(ctx, "driver logged in",
		"request_id", requestID,
		"driver_id", ident.UID,
	)

	httputil.WriteJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		DriverID:    ident.UID,
		DriverName:  name,
		DriverEmail: profile.Email,
	})
}

// DeliveryView is one row of the driver's delivery lists.
type DeliveryView struct {
	ID             string `json:"id"`
	TrackingNumber string `json:"trackingNumber"`
	Status         string `json:"status"`
	StatusLabel    string `json:"statusLabel"`
	Route          string `json:"route"`
	Recipient      string `json:"recipient"`
	UpdatedAt      int64  `json:"updatedAt"`
}

// ReportView is one row of the driver's report history.
type ReportView struct {
	ID               string `json:"id"`
	DeliveryID       string `json:"deliveryId"`
	DeliveryTracking string `json:"deliveryTracking,omitempty"`
	IssueType        string `json:"issueType"`
	IssueLabel       string `json:"issueLabel"`
	Description      string `json:"description"`
	NeedsAssistance  bool   `json:"needsAssistance"`
	Status           string `json:"status"`
	StatusLabel      string `json:"statusLabel"`
	ReportedAt       int64  `json:"reportedAt"`
	AdminResponse    string `json:"adminResponse,omitempty"`
}

// DeliveriesResponse is the full dashboard payload.
type DeliveriesResponse struct {
	Assigned  []DeliveryView `json:"assigned"`
	Completed []DeliveryView `json:"completed"`
	Reports   []ReportView   `json:"reports"`
}

// handleDeliveries handles GET /api/driver/deliveries requests.
func (h *Handler) handleDeliveries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	driverID := middleware.GetDriverID(ctx)

	assigned, completed, err := h.service.Deliveries(ctx, driverID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load deliveries",
			"request_id", middleware.GetRequestID(ctx),
			"driver_id", driverID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	reports, err := h.service.Reports(ctx, driverID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load reports",
			"request_id", middleware.GetRequestID(ctx),
			"driver_id", driverID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := DeliveriesResponse{
		Assigned:  make([]DeliveryView, 0, len(assigned)),
		Completed: make([]DeliveryView, 0, len(completed)),
		Reports:   make([]ReportView, 0, len(reports)),
	}
	for _, s := range assigned {
		resp.Assigned = append(resp.Assigned, deliveryView(s))
	}
	for _, s := range completed {
		resp.Completed = append(resp.Completed, deliveryView(s))
	}
	for _, rep := range reports {
		resp.Reports = append(resp.Reports, reportView(rep))
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// CompletionRequest carries a delivery outcome. SignaturePNG is base64.
type CompletionRequest struct {
	Status        string `json:"status"`
	FailureReason string `json:"failureReason"`
	SignaturePNG  string `json:"signaturePng"`
}

// handleCompletion handles POST /api/driver/deliveries/{id}/completion.
func (h *Handler) handleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	deliveryID := chi.URLParam(r, "id")

	req, ok := httputil.DecodeAndPrepare[CompletionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	var signature []byte
	if req.SignaturePNG != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.SignaturePNG)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "signature must be base64 encoded"))
			return
		}
		signature = decoded
	}

	drv := driverFromContext(ctx)
	err := h.service.CompleteDelivery(ctx, drv, driver.CompletionInput{
		DeliveryID:    deliveryID,
		Status:        req.Status,
		FailureReason: req.FailureReason,
		SignaturePNG:  signature,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "delivery completion rejected",
			"request_id", requestID,
			"driver_id", drv.ID,
			"delivery_id", deliveryID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReportRequest carries an issue report. Photo data is base64.
type ReportRequest struct {
	DeliveryID      string `json:"deliveryId"`
	IssueType       string `json:"issueType"`
	Description     string `json:"description"`
	NeedsAssistance bool   `json:"needsAssistance"`
	PhotoName       string `json:"photoName"`
	PhotoData       string `json:"photoData"`
}

// ReportResponse returns the new report's id.
type ReportResponse struct {
	ReportID string `json:"reportId"`
}

// handleSubmitReport handles POST /api/driver/reports requests.
func (h *Handler) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ReportRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	var photo *driver.Photo
	if req.PhotoData != "" {
		data, err := base64.StdEncoding.DecodeString(req.PhotoData)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "photo must be base64 encoded"))
			return
		}
		photo = &driver.Photo{Name: req.PhotoName, Data: data}
	}

	drv := driverFromContext(ctx)
	reportID, err := h.service.SubmitReport(ctx, drv, driver.ReportInput{
		DeliveryID:      req.DeliveryID,
		IssueType:       req.IssueType,
		Description:     req.Description,
		NeedsAssistance: req.NeedsAssistance,
		Photo:           photo,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "issue report rejected",
			"request_id", requestID,
			"driver_id", drv.ID,
			"delivery_id", req.DeliveryID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, ReportResponse{ReportID: reportID})
}

func driverFromContext(ctx context.Context) driver.Driver {
	return driver.Driver{
		ID:    middleware.GetDriverID(ctx),
		Name:  middleware.GetDriverName(ctx),
		Email: middleware.GetDriverEmail(ctx),
	}
}

func deliveryView(s shipment.Shipment) DeliveryView {
	return DeliveryView{
		ID:             s.ID,
		TrackingNumber: s.TrackingNumber,
		Status:         s.Status,
		StatusLabel:    shipment.StatusLabel(s.Status),
		Route:          shipment.RoutePath(s),
		Recipient:      shipment.FormatContact(s.Recipient),
		UpdatedAt:      s.UpdatedAt,
	}
}

func reportView(r shipment.Report) ReportView {
	return ReportView{
		ID:               r.ID,
		DeliveryID:       r.DeliveryID,
		DeliveryTracking: r.DeliveryTracking,
		IssueType:        r.IssueType,
		IssueLabel:       shipment.FormatIssueType(r.IssueType),
		Description:      r.Description,
		NeedsAssistance:  r.NeedsAssistance,
		Status:           r.Status,
		StatusLabel:      shipment.ReportStatusLabel(r.Status),
		ReportedAt:       r.ReportedAt,
		AdminResponse:    r.AdminResponse,
	}
}
