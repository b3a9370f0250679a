// Package store provides typed access to the application's collections on
// top of a docstore.Store, and implements the request lifecycle.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/igralnica/internal/docstore"
)

// Collection names. They are shared with the web client and must not change.
const (
	CollectionRequests      = "requests"
	CollectionSystems       = "systems"
	CollectionUsers         = "users"
	CollectionNotifications = "notifications"
	CollectionSystemImages  = "systemImages"
	CollectionCredentials   = "credentials"
	CollectionSettings      = "settings"
)

var (
	// ErrNotFound is returned when an operation targets a missing document.
	ErrNotFound = docstore.ErrNotFound
	// ErrAlreadyCheckedOut is returned when checking out a system that is
	// no longer available.
	ErrAlreadyCheckedOut = errors.New("system already checked out")
	// ErrSystemUnavailable is returned when requesting an unavailable system.
	ErrSystemUnavailable = errors.New("system not available")
	// ErrSelfModification is returned when a user changes their own role or status.
	ErrSelfModification = errors.New("cannot change own role or status")
	// ErrInvalidRole is returned for an unknown role.
	ErrInvalidRole = errors.New("invalid role")
	// ErrNotOwner is returned when a user acts on another user's request.
	ErrNotOwner = errors.New("request belongs to another user")
	// ErrInactiveUser is returned when a disabled user creates a request.
	ErrInactiveUser = errors.New("user account is disabled")
)

// ValidationError reports invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// now is the clock used for stored timestamps.
var now = time.Now

func get[T any](ctx context.Context, ds docstore.Store, collection, id string) (*T, error) {
	if id == "" {
		return nil, nil
	}
	doc, err := ds.Get(ctx, collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	var v T
	if err := docstore.Decode(*doc, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func list[T any](ctx context.Context, ds docstore.Store, q docstore.Query) ([]T, error) {
	docs, err := ds.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", q.Collection, err)
	}
	return docstore.DecodeAll[T](docs)
}
