package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// IndexHandler sends the browser to the dashboard.
func (h *UIHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/views/"+PageDashboard, http.StatusFound)
}

// ViewHandler renders a view shell. Navigation through HTMX only swaps the
// content area; a plain request gets the whole layout.
func (h *UIHandler) ViewHandler(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")

	var (
		page string
		data map[string]any
	)
	switch view {
	case PageDashboard:
		page, data = PageDashboard, h.pageData(r, view, "Dashboard")
	case PageReports:
		page, data = PageReports, h.pageData(r, view, "Reports")
	default:
		d, ok := h.definition(w, r, view)
		if !ok {
			return
		}
		page, data = PageResource, h.pageData(r, view, d.Plural)
		data["Definition"] = d
	}

	if isHTMX(r) {
		_ = h.renderer.RenderPartial(w, page, data)
		return
	}
	_ = h.renderer.RenderTemplate(w, page, data)
}
