package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/lord-william/lalalika-logistics/internal/backend"
	"github.com/lord-william/lalalika-logistics/internal/shipment"
	"github.com/lord-william/lalalika-logistics/internal/track"
	"github.com/lord-william/lalalika-logistics/internal/track/handler/mocks"
	dErrors "github.com/lord-william/lalalika-logistics/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/track-mocks.go -package=mocks Service
type TrackHandlerSuite struct {
	suite.Suite
}

func TestTrackHandlerSuite(t *testing.T) {
	suite.Run(t, new(TrackHandlerSuite))
}

func newTestHandler(t *testing.T) (*chi.Mux, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(mockService, logger).Register(r)
	return r, mockService
}

func (s *TrackHandlerSuite) TestHandleLookup() {
	router, mockService := newTestHandler(s.T())

	mockService.EXPECT().Lookup(gomock.Any(), "LLK123456789").Return(track.Result{
		Shipment: shipment.FromRecord("ship-1", backend.Record{
			"trackingNumber": "LLK123456789",
			"status":         "in_transit",
			"origin":         "Cape Town Hub",
			"destination":    "34 Main Rd, Durban",
			"sender":         backend.Record{"name": "Ada Byron"},
			"recipient":      backend.Record{"name": "Grace Hopper"},
			"createdAt":      int64(1700000000000),
		}),
		Updates: []track.Update{
			{Timestamp: 200, Status: "in_transit", Location: "N1 Corridor"},
			{Timestamp: 100, Status: "picked_up", Label: "Picked up", Location: "Cape Town Hub"},
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/track/LLK123456789", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var view ShipmentView
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(s.T(), "LLK123456789", view.TrackingNumber)
	assert.Equal(s.T(), "In Transit", view.StatusLabel)
	assert.Equal(s.T(), "Cape Town Hub → 34 Main Rd, Durban", view.Route)
	assert.Equal(s.T(), "Ada Byron", view.SenderName)
	require.Len(s.T(), view.Updates, 2)
	assert.Equal(s.T(), int64(200), view.Updates[0].Timestamp)
}

func (s *TrackHandlerSuite) TestHandleLookupNotFound() {
	router, mockService := newTestHandler(s.T())

	mockService.EXPECT().Lookup(gomock.Any(), "LLK999999999").Return(track.Result{},
		dErrors.New(dErrors.CodeNotFound, "No shipment found with this tracking number"))

	req := httptest.NewRequest(http.MethodGet, "/api/track/LLK999999999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
	var body map[string]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(s.T(), "not_found", body["error"])
	assert.Equal(s.T(), "No shipment found with this tracking number", body["error_description"])
}

func (s *TrackHandlerSuite) TestHandleStats() {
	router, mockService := newTestHandler(s.T())

	mockService.EXPECT().DashboardStats(gomock.Any()).Return(track.Stats{
		ActiveShipments: 4,
		OpenReports:     2,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp StatsResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), 4, resp.ActiveShipments)
	assert.Equal(s.T(), 2, resp.OpenReports)
}

func (s *TrackHandlerSuite) TestHandleStatsUnavailable() {
	router, mockService := newTestHandler(s.T())

	mockService.EXPECT().DashboardStats(gomock.Any()).Return(track.Stats{},
		dErrors.New(dErrors.CodeUnavailable, "Failed to load dashboard data"))

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadGateway, w.Code)
}
