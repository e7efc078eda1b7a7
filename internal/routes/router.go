package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"airline-ops/airops/console/ui"
	"airline-ops/airops/internal/api"
	"airline-ops/airops/internal/crud"
	"airline-ops/airops/internal/logging"
	"airline-ops/airops/internal/metrics"
	"airline-ops/airops/internal/middleware"
	"airline-ops/airops/internal/reports"
)

// Dependencies are the wired components the router serves.
type Dependencies struct {
	Controller *crud.Controller
	Aggregator *reports.Aggregator
	Renderer   *ui.Renderer
	Metrics    *metrics.MetricsRegistry
	Gatherer   prometheus.Gatherer

	// Health checks, keyed by the name reported in /healthz.
	Health        map[string]api.Pinger
	HealthTimeout time.Duration

	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
}

func RegisterRoutes(deps Dependencies, upSince time.Time) http.Handler {
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.MetricsMiddleware(deps.Metrics))
	r.Use(middleware.Logging)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "HX-Request", "HX-Target", "HX-Trigger", "HX-Current-URL", "X-Request-ID"},
		ExposedHeaders:   []string{"HX-Trigger", "HX-Reswap", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	logging.Info("Router initialized with metrics and logging middleware")

	r.Get("/healthz", api.HealthCheckHandler(deps.Health, deps.HealthTimeout, upSince))
	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))

	RegisterUIRoutes(r, ui.NewUIHandler(deps.Controller, deps.Aggregator, deps.Renderer), deps.Metrics, deps.RateLimiter)

	return r
}
