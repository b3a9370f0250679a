package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/model"
	"github.com/erazemk/igralnica/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			zap.L().Error("encoding response", zap.Error(err))
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into target and validates it.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return err
	}
	return validate.Struct(target)
}

// bodyError writes the 400 response for a decodeJSON failure.
func bodyError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fe.Field() + ": failed " + fe.Tag()
		}
		jsonError(w, http.StatusBadRequest, strings.Join(msgs, "; "))
		return
	}
	jsonError(w, http.StatusBadRequest, "invalid request body")
}

// storeError maps a store error to a response. Unexpected errors are logged
// and reported as a generic failure described by action.
func storeError(w http.ResponseWriter, err error, action string) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrInvalidRole):
		jsonError(w, http.StatusBadRequest, "invalid role")
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrIllegalTransition),
		errors.Is(err, store.ErrAlreadyCheckedOut),
		errors.Is(err, store.ErrSystemUnavailable),
		errors.Is(err, docstore.ErrExists):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrSelfModification),
		errors.Is(err, store.ErrNotOwner),
		errors.Is(err, store.ErrInactiveUser):
		jsonError(w, http.StatusForbidden, err.Error())
	default:
		zap.L().Error("failed to "+action, zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// orEmpty keeps empty lists as [] in JSON.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
