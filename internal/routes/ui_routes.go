package routes

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"airline-ops/airops/console/ui"
	"airline-ops/airops/internal/metrics"
	"airline-ops/airops/internal/middleware"
)

// RegisterUIRoutes registers all UI-related routes
func RegisterUIRoutes(r chi.Router, h *ui.UIHandler, metricsReg *metrics.MetricsRegistry, limiter *middleware.RateLimiter) {
	// Static file serving (CSS, JS) with correct MIME types
	fileServer := http.FileServer(http.FS(ui.StaticFS()))
	r.Handle("/static/*", http.StripPrefix("/static/", mimeTypeMiddleware(fileServer)))

	r.Group(func(console chi.Router) {
		console.Use(middleware.ClientMiddleware)
		console.Use(middleware.ThemeMiddleware)
		console.Use(middleware.InFlightMiddleware(metricsReg, "console"))

		console.Get("/", h.IndexHandler)
		console.Get("/views/{view}", h.ViewHandler)

		console.Get("/dashboard/stats", h.DashboardStatsHandler)
		console.Get("/reports/summary", h.ReportsSummaryHandler)

		console.Get("/modal", h.ModalHandler)
		console.Post("/modal/close", h.CloseModalHandler)
		console.Post("/theme", h.SetThemeHandler)

		console.Route("/resources/{type}", func(res chi.Router) {
			res.Get("/rows", h.RowsHandler)
			res.Get("/new", h.NewHandler)
			res.Get("/{id:[0-9]+}/edit", h.EditHandler)
			res.Get("/{id:[0-9]+}/delete", h.ConfirmDeleteHandler)

			// Mutations are rate limited per client.
			res.Group(func(mut chi.Router) {
				if limiter != nil {
					mut.Use(limiter.Middleware)
				}
				mut.Post("/submit", h.SubmitHandler)
				mut.Post("/{id:[0-9]+}/delete", h.DeleteHandler)
			})
		})
	})
}

// mimeTypeMiddleware wraps a file server and sets correct MIME types for various file types
func mimeTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch ext := filepath.Ext(r.URL.Path); {
		case strings.EqualFold(ext, ".js"), strings.EqualFold(ext, ".mjs"):
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		case strings.EqualFold(ext, ".css"):
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		}
		next.ServeHTTP(w, r)
	})
}
