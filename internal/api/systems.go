package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/model"
	"github.com/erazemk/igralnica/internal/photo"
	"github.com/erazemk/igralnica/internal/store"
)

// SystemsHandler handles the equipment inventory.
type SystemsHandler struct {
	Store docstore.Store
}

// List handles GET /api/systems. ?available=true limits the list to
// available systems.
func (h *SystemsHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		systems []model.System
		err     error
	)
	if available, _ := strconv.ParseBool(r.URL.Query().Get("available")); available {
		systems, err = store.ListAvailableSystems(r.Context(), h.Store)
	} else {
		systems, err = store.ListSystems(r.Context(), h.Store)
	}
	if err != nil {
		storeError(w, err, "list systems")
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(systems))
}

// Get handles GET /api/systems/{id}.
func (h *SystemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := store.GetSystem(r.Context(), h.Store, chi.URLParam(r, "id"))
	if err != nil {
		storeError(w, err, "get system")
		return
	}
	if s == nil {
		jsonError(w, http.StatusNotFound, "system not found")
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// Create handles POST /api/systems. Omitted fields take the defaults of a
// new system.
func (h *SystemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := model.NewSystem()
	if err := decodeJSON(r, &s); err != nil {
		bodyError(w, err)
		return
	}

	created, err := store.CreateSystem(r.Context(), h.Store, s)
	if err != nil {
		storeError(w, err, "create system")
		return
	}

	zap.L().Info("system created",
		zap.String("user", CurrentUser(r.Context()).Email),
		zap.String("system", created.ID),
		zap.String("name", created.Name),
	)
	jsonResponse(w, http.StatusCreated, created)
}

// Update handles PUT /api/systems/{id}.
func (h *SystemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var s model.System
	if err := decodeJSON(r, &s); err != nil {
		bodyError(w, err)
		return
	}

	updated, err := store.UpdateSystem(r.Context(), h.Store, chi.URLParam(r, "id"), s)
	if err != nil {
		storeError(w, err, "update system")
		return
	}

	zap.L().Info("system updated",
		zap.String("user", CurrentUser(r.Context()).Email),
		zap.String("system", updated.ID),
		zap.Bool("available", updated.Available),
	)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/systems/{id}.
func (h *SystemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := store.DeleteSystem(r.Context(), h.Store, id); err != nil {
		storeError(w, err, "delete system")
		return
	}

	zap.L().Info("system deleted",
		zap.String("user", CurrentUser(r.Context()).Email),
		zap.String("system", id),
	)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "system deleted"})
}

// Alerts handles GET /api/systems/alerts.
func (h *SystemsHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := store.ListMaintenanceAlerts(r.Context(), h.Store, time.Now())
	if err != nil {
		storeError(w, err, "list maintenance alerts")
		return
	}
	jsonResponse(w, http.StatusOK, alerts)
}

// UploadImage handles PUT /api/systems/{id}/image. The photo is sent as the
// "image" field of a multipart form.
func (h *SystemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, photo.MaxUpload+1<<20)
	if err := r.ParseMultipartForm(photo.MaxUpload); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	thumb, err := photo.Thumbnail(file)
	if errors.Is(err, photo.ErrUnsupported) || errors.Is(err, photo.ErrTooLarge) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		zap.L().Error("processing image", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to process image")
		return
	}

	if err := store.SetSystemImage(r.Context(), h.Store, id, thumb, photo.ContentType); err != nil {
		storeError(w, err, "save image")
		return
	}

	zap.L().Info("system image uploaded",
		zap.String("user", CurrentUser(r.Context()).Email),
		zap.String("system", id),
		zap.Int("bytes", len(thumb)),
	)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/systems/{id}/image.
func (h *SystemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetSystemImage(r.Context(), h.Store, chi.URLParam(r, "id"))
	if err != nil {
		storeError(w, err, "get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(data)
}
