package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/model"
	"github.com/erazemk/igralnica/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	Store docstore.Store
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type updateStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type updateDepartmentRequest struct {
	Department string `json:"department"`
}

// List handles GET /api/users?search=&department=&role=.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := store.ListUsers(r.Context(), h.Store, store.UserFilter{
		Search:     q.Get("search"),
		Department: q.Get("department"),
		Role:       q.Get("role"),
	})
	if err != nil {
		storeError(w, err, "list users")
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(users))
}

// Departments handles GET /api/users/departments.
func (h *UsersHandler) Departments(w http.ResponseWriter, r *http.Request) {
	depts, err := store.Departments(r.Context(), h.Store)
	if err != nil {
		storeError(w, err, "list departments")
		return
	}
	jsonResponse(w, http.StatusOK, depts)
}

// UpdateRole handles PUT /api/users/{id}/role.
func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		bodyError(w, err)
		return
	}

	actor := CurrentUser(r.Context())
	id := chi.URLParam(r, "id")
	user, err := store.UpdateUserRole(r.Context(), h.Store, actor.ID, id, req.Role)
	if err != nil {
		h.logDenied(actor, id, err)
		storeError(w, err, "update role")
		return
	}

	zap.L().Info("user role updated",
		zap.String("user", actor.Email),
		zap.String("target_user", user.Email),
		zap.String("new_role", user.Role),
	)
	jsonResponse(w, http.StatusOK, user)
}

// UpdateStatus handles PUT /api/users/{id}/status.
func (h *UsersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		bodyError(w, err)
		return
	}

	actor := CurrentUser(r.Context())
	id := chi.URLParam(r, "id")
	user, err := store.SetUserActive(r.Context(), h.Store, actor.ID, id, *req.IsActive)
	if err != nil {
		h.logDenied(actor, id, err)
		storeError(w, err, "update status")
		return
	}

	zap.L().Info("user status updated",
		zap.String("user", actor.Email),
		zap.String("target_user", user.Email),
		zap.Bool("active", user.IsActive),
	)
	jsonResponse(w, http.StatusOK, user)
}

// UpdateDepartment handles PUT /api/users/{id}/department.
func (h *UsersHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	var req updateDepartmentRequest
	if err := decodeJSON(r, &req); err != nil {
		bodyError(w, err)
		return
	}

	user, err := store.UpdateUserDepartment(r.Context(), h.Store, chi.URLParam(r, "id"), req.Department)
	if err != nil {
		storeError(w, err, "update department")
		return
	}

	zap.L().Info("user department updated",
		zap.String("user", CurrentUser(r.Context()).Email),
		zap.String("target_user", user.Email),
		zap.String("department", user.Department),
	)
	jsonResponse(w, http.StatusOK, user)
}

func (h *UsersHandler) logDenied(actor *model.User, target string, err error) {
	if errors.Is(err, store.ErrSelfModification) {
		zap.L().Warn("self-modification denied", zap.String("user", actor.Email), zap.String("target_user", target))
	}
}
