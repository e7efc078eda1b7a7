// Package ui serves the console's HTML: the page shells, the HTMX partials
// for lists, modals, dashboard and reports, and the static assets.
package ui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"airline-ops/airops/internal/apiclient"
	"airline-ops/airops/internal/constants"
	reqctx "airline-ops/airops/internal/context"
	"airline-ops/airops/internal/crud"
	"airline-ops/airops/internal/logging"
	"airline-ops/airops/internal/middleware"
	"airline-ops/airops/internal/notify"
	"airline-ops/airops/internal/reports"
	"airline-ops/airops/internal/resources"
	"airline-ops/airops/internal/session"
)

// UIHandler manages all UI routes
type UIHandler struct {
	ctrl     *crud.Controller
	reports  *reports.Aggregator
	renderer *Renderer
}

// NewUIHandler creates a new UI handler
func NewUIHandler(ctrl *crud.Controller, agg *reports.Aggregator, renderer *Renderer) *UIHandler {
	return &UIHandler{ctrl: ctrl, reports: agg, renderer: renderer}
}

func (h *UIHandler) registry() *resources.Registry {
	return h.ctrl.Registry()
}

func (h *UIHandler) notifier() *notify.Service {
	return h.ctrl.Notifier()
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// statusFor maps an error to the response status of a failed partial.
func statusFor(err error) int {
	var (
		verr   *crud.ValidationError
		apiErr *apiclient.APIError
		netErr *apiclient.NetworkError
	)
	switch {
	case errors.Is(err, resources.ErrUnknownResource):
		return http.StatusNotFound
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrStale):
		return http.StatusConflict
	case errors.As(err, &apiErr), errors.As(err, &netErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail answers a partial request with an error toast. HX-Reswap keeps the
// current content (the previous table, the modal's inputs) in place.
func (h *UIHandler) fail(w http.ResponseWriter, r *http.Request, err error, message string, events ...string) {
	status := statusFor(err)
	logging.WithRequest(
		reqctx.GetRequestID(r.Context()),
		reqctx.GetClientID(r.Context()),
		r.URL.Path,
	).Warnw("UI request failed", "status_code", status, "error", err)

	notify.NewTrigger().
		Toast(h.notifier().Error(message)).
		Event(events...).
		Apply(w)
	w.Header().Set("HX-Reswap", "none")
	http.Error(w, message, status)
}

// expired answers a request whose edit session is gone or was superseded.
// The modal is closed since nothing can be saved from it any more.
func (h *UIHandler) expired(w http.ResponseWriter, r *http.Request, err error) {
	h.fail(w, r, err, constants.MsgSessionExpired, notify.EventCloseModal)
}

// respond applies a controller outcome. Stale outcomes produce no UI effect.
func (h *UIHandler) respond(w http.ResponseWriter, out *crud.Outcome) {
	out.Trigger().Apply(w)
	w.WriteHeader(http.StatusNoContent)
}

// definition resolves the {type} URL parameter, answering 404 when unknown.
func (h *UIHandler) definition(w http.ResponseWriter, r *http.Request, resourceType string) (*resources.Definition, bool) {
	d, err := h.registry().Get(resourceType)
	if err != nil {
		h.fail(w, r, err, constants.MsgUnknownResource)
		return nil, false
	}
	return d, true
}

func (h *UIHandler) pageData(r *http.Request, active, title string) map[string]any {
	return map[string]any{
		"Title":  title,
		"Theme":  reqctx.GetTheme(r.Context()),
		"Nav":    h.registry().All(),
		"Active": active,
	}
}

// SetThemeHandler handles theme changes via POST request
func (h *UIHandler) SetThemeHandler(w http.ResponseWriter, r *http.Request) {
	theme := strings.TrimSpace(r.FormValue("theme"))
	if !middleware.ValidTheme(theme) {
		theme = reqctx.DefaultTheme
	}

	http.SetCookie(w, &http.Cookie{
		Name:     constants.CookieTheme,
		Value:    theme,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "theme": theme})
}
