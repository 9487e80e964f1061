package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vyrodovalexey/edgegw/internal/health"
	"github.com/vyrodovalexey/edgegw/internal/observability"
)

// newAdminRouter serves probes and metrics. It is never part of the edge
// pipeline.
func newAdminRouter(metrics *observability.Metrics, checker *health.Checker) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.NoCache)

	r.Get("/healthz", checker.HealthHandler())
	r.Get("/readyz", checker.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

// createAdminServer creates the admin HTTP server.
func createAdminServer(addr string, handler http.Handler, logger observability.Logger) *http.Server {
	logger.Info("starting admin server", observability.String("address", addr))

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}
