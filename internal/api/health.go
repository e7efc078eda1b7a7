package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Pinger is a dependency the health check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServiceStatus is the state of one dependency.
type ServiceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details"`
}

// HealthCheckResponse is the body of GET /healthz.
type HealthCheckResponse struct {
	Services map[string]ServiceStatus `json:"services"`
	Status   string                   `json:"status"`
	Uptime   string                   `json:"uptime"`
}

// HealthCheckHandler handles GET /healthz. It answers 503 when any
// dependency is down.
func HealthCheckHandler(checks map[string]Pinger, timeout time.Duration, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		services := make(map[string]ServiceStatus, len(checks))
		overallStatus := "ok"
		for name, check := range checks {
			status := ServiceStatus{Status: "ok", Details: "reachable"}
			if err := check.Ping(ctx); err != nil {
				status = ServiceStatus{Status: "down", Details: err.Error()}
				overallStatus = "down"
			}
			services[name] = status
		}

		resp := HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			Uptime:   time.Since(upSince).Round(time.Second).String(),
		}

		w.Header().Set("Content-Type", "application/json")
		if overallStatus != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
