package api

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/model"
	"github.com/erazemk/igralnica/internal/store"
)

// StreamHandler serves live views as server-sent events. Each event carries
// the full current result of a query. A stream ends when its viewer is
// disabled or loses the role it was opened with.
type StreamHandler struct {
	Store docstore.Store
}

// Requests handles GET /api/stream/requests. Admins see every request,
// users their own.
func (h *StreamHandler) Requests(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	var (
		sub *docstore.Subscription
		err error
	)
	minRole := model.RoleUser
	if model.RoleAtLeast(user.Role, model.RoleAdmin) {
		minRole = model.RoleAdmin
		sub, err = store.SubscribeRequests(r.Context(), h.Store)
	} else {
		sub, err = store.SubscribeUserRequests(r.Context(), h.Store, user.ID)
	}
	if err != nil {
		storeError(w, err, "subscribe to requests")
		return
	}
	viewer, err := h.watch(r, minRole)
	if err != nil {
		sub.Close()
		storeError(w, err, "subscribe to users")
		return
	}
	serveEvents(w, r, sub, viewer, docstore.DecodeAll[model.Request])
}

// Systems handles GET /api/stream/systems.
func (h *StreamHandler) Systems(w http.ResponseWriter, r *http.Request) {
	sub, err := store.SubscribeSystems(r.Context(), h.Store)
	if err != nil {
		storeError(w, err, "subscribe to systems")
		return
	}
	viewer, err := h.watch(r, model.RoleUser)
	if err != nil {
		sub.Close()
		storeError(w, err, "subscribe to users")
		return
	}
	serveEvents(w, r, sub, viewer, docstore.DecodeAll[model.System])
}

// Notifications handles GET /api/stream/notifications.
func (h *StreamHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	sub, err := store.SubscribeUnread(r.Context(), h.Store)
	if err != nil {
		storeError(w, err, "subscribe to notifications")
		return
	}
	viewer, err := h.watch(r, model.RoleAdmin)
	if err != nil {
		sub.Close()
		storeError(w, err, "subscribe to users")
		return
	}
	serveEvents(w, r, sub, viewer, docstore.DecodeAll[model.Notification])
}

// watch follows the current user's profile for the lifetime of a stream.
func (h *StreamHandler) watch(r *http.Request, minRole string) (*viewerWatch, error) {
	users, err := store.SubscribeUsers(r.Context(), h.Store)
	if err != nil {
		return nil, err
	}
	return &viewerWatch{userID: CurrentUser(r.Context()).ID, minRole: minRole, users: users}, nil
}

// viewerWatch follows the profile of the user a stream was opened for.
type viewerWatch struct {
	userID  string
	minRole string
	users   *docstore.Subscription
}

// revoked reports whether the viewer no longer qualifies for the stream.
func (v *viewerWatch) revoked(snap docstore.Snapshot) bool {
	users, err := docstore.DecodeAll[model.User](snap.Documents)
	if err != nil {
		zap.L().Error("decoding users snapshot", zap.Error(err))
		return true
	}
	for _, u := range users {
		if u.ID == v.userID {
			return !u.IsActive || !model.RoleAtLeast(u.Role, v.minRole)
		}
	}
	return true
}

// serveEvents writes one "snapshot" event per update until the client goes
// away, the subscription ends or the viewer is revoked. Both subscriptions
// are always closed.
func serveEvents[T any](w http.ResponseWriter, r *http.Request, sub *docstore.Subscription, viewer *viewerWatch, decode func([]docstore.Document) ([]T, error)) {
	defer sub.Close()
	defer viewer.users.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-viewer.users.Updates():
			if !ok || viewer.revoked(snap) {
				zap.L().Info("stream closed for viewer",
					zap.String("path", r.URL.Path),
					zap.String("user_id", viewer.userID),
				)
				return
			}
		case snap, ok := <-sub.Updates():
			if !ok {
				if err := sub.Err(); err != nil {
					zap.L().Warn("stream ended", zap.String("path", r.URL.Path), zap.Error(err))
				}
				return
			}
			items, err := decode(snap.Documents)
			if err != nil {
				zap.L().Error("decoding snapshot", zap.Error(err))
				return
			}
			data, err := json.Marshal(orEmpty(items))
			if err != nil {
				zap.L().Error("encoding snapshot", zap.Error(err))
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
