package ui

import (
	"fmt"
	"net/http"

	"airline-ops/airops/internal/apiclient"
	"airline-ops/airops/internal/constants"
)

// DashboardStatsHandler renders the dashboard figures. A failed refresh keeps
// the figures already on screen.
func (h *UIHandler) DashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	dash, err := h.reports.RefreshDashboard(r.Context())
	if err != nil {
		h.fail(w, r, err, fmt.Sprintf(constants.MsgDashboardFailed, apiclient.Message(err)))
		return
	}
	_ = h.renderer.RenderFragment(w, "stats", dash)
}

// ReportsSummaryHandler renders the reports page figures.
func (h *UIHandler) ReportsSummaryHandler(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reports.RefreshReports(r.Context())
	if err != nil {
		h.fail(w, r, err, fmt.Sprintf(constants.MsgReportsFailed, apiclient.Message(err)))
		return
	}
	_ = h.renderer.RenderFragment(w, "summary", rep)
}
