package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"airline-ops/airops/console/ui"
	"airline-ops/airops/internal/api"
	"airline-ops/airops/internal/apiclient"
	"airline-ops/airops/internal/config"
	"airline-ops/airops/internal/crud"
	"airline-ops/airops/internal/logging"
	"airline-ops/airops/internal/metrics"
	"airline-ops/airops/internal/middleware"
	"airline-ops/airops/internal/notify"
	"airline-ops/airops/internal/reports"
	"airline-ops/airops/internal/resources"
	"airline-ops/airops/internal/routes"
	"airline-ops/airops/internal/session"
)

// Airline operations console.
// Serves the admin UI on :3000 by default and talks to the airline REST API
// configured under api.base_url.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.AppEnv, cfg.Log.Level); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Console starting up",
		"environment", cfg.AppEnv,
		"api_base_url", cfg.API.BaseURL,
		"session_backend", cfg.Session.Backend,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsReg := metrics.NewMetricsRegistry(reg)

	sessions, err := session.NewStore(cfg.Session.Backend, cfg.Session.TTL, session.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logging.Fatal("Failed to create session store", "error", err)
	}
	defer sessions.Close()

	client := apiclient.NewClient(cfg.API.BaseURL, cfg.API.Timeout, metricsReg)
	registry := resources.NewRegistry()
	notifier := notify.NewService(cfg.Notify.Duration, metricsReg)

	renderer, err := ui.NewRenderer()
	if err != nil {
		logging.Fatal("Failed to parse templates", "error", err)
	}

	upSince := time.Now()
	router := routes.RegisterRoutes(routes.Dependencies{
		Controller: crud.NewController(client, registry, sessions, notifier, metricsReg),
		Aggregator: reports.NewAggregator(client, registry, metricsReg),
		Renderer:   renderer,
		Metrics:    metricsReg,
		Gatherer:   reg,
		Health: map[string]api.Pinger{
			"airline_api":   client,
			"session_store": sessions,
		},
		HealthTimeout:  cfg.API.Timeout,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimiter:    middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, notifier),
	}, upSince)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Info("Server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Graceful shutdown failed", "error", err)
	}
}
