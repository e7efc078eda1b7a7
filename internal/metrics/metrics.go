package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the console
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Upstream API Metrics
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec

	// Console Metrics
	NotificationsTotal    *prometheus.CounterVec
	SessionsStartedTotal  *prometheus.CounterVec
	StaleResultsDiscarded *prometheus.CounterVec
	AggregateDuration     *prometheus.HistogramVec
}

// NewMetricsRegistry initializes the metrics against the given registerer.
// Pass prometheus.DefaultRegisterer in production and prometheus.NewRegistry() in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airops_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "airops_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "airops_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airops_upstream_requests_total",
				Help: "Requests sent to the airline API by method, resource and outcome",
			},
			[]string{"method", "resource", "outcome"},
		),
		UpstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "airops_upstream_request_duration_seconds",
				Help:    "Airline API latency distribution in seconds",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "resource"},
		),

		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airops_notifications_total",
				Help: "Toast notifications raised by kind",
			},
			[]string{"kind"},
		),
		SessionsStartedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airops_edit_sessions_started_total",
				Help: "Edit sessions started by resource and mode",
			},
			[]string{"resource", "mode"},
		),
		StaleResultsDiscarded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airops_stale_results_discarded_total",
				Help: "Completed submits/deletes whose UI effects were dropped because a newer session started",
			},
			[]string{"resource", "mode"},
		),
		AggregateDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "airops_aggregate_duration_seconds",
				Help:    "Dashboard and report refresh time in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"aggregate"},
		),
	}
}
