package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/store"
)

// NotificationsHandler handles admin notifications.
type NotificationsHandler struct {
	Store docstore.Store
}

// List handles GET /api/notifications. Only unread notifications are listed.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	ns, err := store.ListUnread(r.Context(), h.Store)
	if err != nil {
		storeError(w, err, "list notifications")
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(ns))
}

// MarkRead handles POST /api/notifications/{id}/read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := store.MarkRead(r.Context(), h.Store, chi.URLParam(r, "id")); err != nil {
		storeError(w, err, "mark notification read")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "notification read"})
}
