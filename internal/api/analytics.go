package api

import (
	"net/http"
	"time"

	"github.com/erazemk/igralnica/internal/analytics"
	"github.com/erazemk/igralnica/internal/docstore"
)

// AnalyticsHandler serves the admin dashboard.
type AnalyticsHandler struct {
	Store docstore.Store
}

// Summary handles GET /api/analytics.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, err := analytics.Load(r.Context(), h.Store)
	if err != nil {
		storeError(w, err, "compute analytics")
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// Returns handles GET /api/analytics/returns.
func (h *AnalyticsHandler) Returns(w http.ResponseWriter, r *http.Request) {
	ret, err := analytics.LoadReturns(r.Context(), h.Store, time.Now())
	if err != nil {
		storeError(w, err, "load returns")
		return
	}
	ret.Pending = orEmpty(ret.Pending)
	ret.CheckedOut = orEmpty(ret.CheckedOut)
	ret.Overdue = orEmpty(ret.Overdue)
	ret.Returned = orEmpty(ret.Returned)
	jsonResponse(w, http.StatusOK, ret)
}
