// Package httpapi assembles the public HTTP surface: kiosk intake, public
// tracking, and the authenticated driver API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	driverhandler "github.com/lord-william/lalalika-logistics/internal/driver/handler"
	kioskhandler "github.com/lord-william/lalalika-logistics/internal/kiosk/handler"
	"github.com/lord-william/lalalika-logistics/internal/platform/middleware"
	trackhandler "github.com/lord-william/lalalika-logistics/internal/track/handler"
)

// Deps carries everything the router needs. Health is optional; when set it
// backs the health endpoint with a real dependency check.
type Deps struct {
	Kiosk     kioskhandler.Service
	Track     trackhandler.Service
	Gate      driverhandler.Gate
	Tokens    driverhandler.TokenIssuer
	Driver    driverhandler.Service
	Validator middleware.JWTValidator
	Logger    *slog.Logger
	Health    func(ctx context.Context) error
}

// NewRouter wires all endpoints, request ID propagation, and the metrics
// scrape handler.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	kioskhandler.New(d.Kiosk, d.Logger).Register(r)
	trackhandler.New(d.Track, d.Logger).Register(r)
	driverhandler.New(d.Gate, d.Tokens, d.Driver, d.Logger).
		Register(r, middleware.RequireAuth(d.Validator, d.Logger))

	r.Get("/healthz", healthHandler(d.Health))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			if err := check(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
