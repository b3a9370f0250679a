package api

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/igralnica/internal/auth"
	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/store"
)

// AuthHandler handles local account sign-in and the caller's profile.
type AuthHandler struct {
	Store     docstore.Store
	JWTSecret string
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		bodyError(w, err)
		return
	}

	cred, err := store.GetCredentialByEmail(r.Context(), h.Store, req.Email)
	if err != nil {
		storeError(w, err, "look up credentials")
		return
	}
	if cred == nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		zap.L().Warn("login failed", zap.String("email", req.Email), zap.String("remote", r.RemoteAddr))
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	user, err := store.GetUser(r.Context(), h.Store, cred.ID)
	if err != nil {
		storeError(w, err, "load user")
		return
	}
	if user == nil || !user.IsActive {
		jsonError(w, http.StatusForbidden, "account disabled")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.Email)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	zap.L().Info("user logged in", zap.String("user", user.Email), zap.String("role", user.Role))
	jsonResponse(w, http.StatusOK, loginResponse{Token: token})
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, CurrentUser(r.Context()))
}
