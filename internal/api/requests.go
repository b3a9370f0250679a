package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/model"
	"github.com/erazemk/igralnica/internal/rules"
	"github.com/erazemk/igralnica/internal/store"
)

// RequestsHandler handles checkout requests.
type RequestsHandler struct {
	Store docstore.Store
}

// Check handles POST /api/requests/check. It recommends a system type and
// lists the available systems meeting the requirements.
func (h *RequestsHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req rules.Requirements
	if err := decodeJSON(r, &req); err != nil {
		bodyError(w, err)
		return
	}
	match, err := store.MatchSystems(r.Context(), h.Store, req)
	if err != nil {
		storeError(w, err, "check availability")
		return
	}
	jsonResponse(w, http.StatusOK, match)
}

// Create handles POST /api/requests.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft store.RequestDraft
	if err := decodeJSON(r, &draft); err != nil {
		bodyError(w, err)
		return
	}

	user := CurrentUser(r.Context())
	req, err := store.CreateRequest(r.Context(), h.Store, user, draft)
	if err != nil {
		storeError(w, err, "create request")
		return
	}

	zap.L().Info("request created",
		zap.String("user", user.Email),
		zap.String("request", req.ID),
		zap.String("system", req.SystemName),
		zap.String("status", req.Status),
		zap.Bool("flagged", req.Flagged),
	)
	jsonResponse(w, http.StatusCreated, req)
}

// Mine handles GET /api/requests/mine.
func (h *RequestsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	reqs, err := store.ListUserRequests(r.Context(), h.Store, CurrentUser(r.Context()).ID)
	if err != nil {
		storeError(w, err, "list requests")
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(reqs))
}

// List handles GET /api/requests.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	reqs, err := store.ListRequests(r.Context(), h.Store)
	if err != nil {
		storeError(w, err, "list requests")
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(reqs))
}

// Flagged handles GET /api/requests/flagged.
func (h *RequestsHandler) Flagged(w http.ResponseWriter, r *http.Request) {
	reqs, err := store.ListFlaggedAwaitingReview(r.Context(), h.Store)
	if err != nil {
		storeError(w, err, "list flagged requests")
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(reqs))
}

// Get handles GET /api/requests/{id}. Users only see their own requests.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := store.GetRequest(r.Context(), h.Store, chi.URLParam(r, "id"))
	if err != nil {
		storeError(w, err, "get request")
		return
	}
	user := CurrentUser(r.Context())
	if req == nil || (req.UserID != user.ID && !model.RoleAtLeast(user.Role, model.RoleAdmin)) {
		jsonError(w, http.StatusNotFound, "request not found")
		return
	}
	jsonResponse(w, http.StatusOK, req)
}

// Return handles POST /api/requests/{id}/return.
func (h *RequestsHandler) Return(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	h.transition(w, r, "initiate return", func(ctx context.Context, ds docstore.Store, id string) (*model.Request, error) {
		return store.InitiateReturn(ctx, ds, id, user.ID)
	})
}

// Approve handles POST /api/requests/{id}/approve.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "approve request", store.Approve)
}

// Reject handles POST /api/requests/{id}/reject.
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reject request", store.Reject)
}

// Checkout handles POST /api/requests/{id}/checkout.
func (h *RequestsHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "check out system", store.Checkout)
}

// ConfirmReturn handles POST /api/requests/{id}/confirm-return.
func (h *RequestsHandler) ConfirmReturn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "confirm return", store.ConfirmReturn)
}

// MarkReturned handles POST /api/requests/{id}/mark-returned.
func (h *RequestsHandler) MarkReturned(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "mark returned", store.MarkReturned)
}

type transitionFunc func(ctx context.Context, ds docstore.Store, id string) (*model.Request, error)

func (h *RequestsHandler) transition(w http.ResponseWriter, r *http.Request, action string, fn transitionFunc) {
	id := chi.URLParam(r, "id")
	req, err := fn(r.Context(), h.Store, id)
	if err != nil {
		storeError(w, err, action)
		return
	}

	zap.L().Info("request "+req.Status,
		zap.String("user", CurrentUser(r.Context()).Email),
		zap.String("request", req.ID),
		zap.String("system", req.SystemName),
		zap.String("status", req.Status),
	)
	jsonResponse(w, http.StatusOK, req)
}
