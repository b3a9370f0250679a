package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/model"
	"github.com/erazemk/igralnica/internal/rules"
)

func validateSystem(s *model.System) error {
	if s.Name == "" {
		return invalid("name", "name is required")
	}
	if !model.ValidSystemType(s.Type) {
		return invalid("type", "unknown system type %q", s.Type)
	}
	if s.Controllers < 0 {
		return invalid("controllers", "controller count cannot be negative")
	}
	for field, v := range map[string]string{"systemReset": s.SystemReset, "lastMaintenance": s.LastMaintenance} {
		if v == "" {
			continue
		}
		if _, err := model.ParseDate(v); err != nil {
			return invalid(field, "invalid date %q", v)
		}
	}
	return nil
}

// CreateSystem adds a system to the inventory.
func CreateSystem(ctx context.Context, ds docstore.Store, s model.System) (*model.System, error) {
	if err := validateSystem(&s); err != nil {
		return nil, err
	}
	ts := model.Timestamp(now())
	s.CreatedAt, s.UpdatedAt = ts, ts

	fields, err := docstore.Encode(s)
	if err != nil {
		return nil, err
	}
	id, err := ds.Create(ctx, CollectionSystems, fields)
	if err != nil {
		return nil, fmt.Errorf("creating system: %w", err)
	}
	s.ID = id
	return &s, nil
}

// UpdateSystem replaces the editable fields of a system. The creation time is
// kept.
func UpdateSystem(ctx context.Context, ds docstore.Store, id string, s model.System) (*model.System, error) {
	if err := validateSystem(&s); err != nil {
		return nil, err
	}
	existing, err := GetSystem(ctx, ds, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("system %s: %w", id, ErrNotFound)
	}

	s.ID = id
	s.CreatedAt = existing.CreatedAt
	s.UpdatedAt = model.Timestamp(now())
	fields, err := docstore.Encode(s)
	if err != nil {
		return nil, err
	}
	if err := ds.Set(ctx, CollectionSystems, id, fields); err != nil {
		return nil, fmt.Errorf("updating system: %w", err)
	}
	return &s, nil
}

// SetAvailability flips a system's availability directly.
func SetAvailability(ctx context.Context, ds docstore.Store, id string, available bool) error {
	err := ds.Update(ctx, CollectionSystems, id, map[string]any{
		"available": available,
		"updatedAt": model.Timestamp(now()),
	})
	if err != nil {
		return fmt.Errorf("setting availability: %w", err)
	}
	return nil
}

// DeleteSystem removes a system and its photo.
func DeleteSystem(ctx context.Context, ds docstore.Store, id string) error {
	existing, err := GetSystem(ctx, ds, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("system %s: %w", id, ErrNotFound)
	}
	err = ds.Batch(ctx, []docstore.Op{
		docstore.DeleteOp(CollectionSystems, id),
		docstore.DeleteOp(CollectionSystemImages, id),
	})
	if err != nil {
		return fmt.Errorf("deleting system: %w", err)
	}
	return nil
}

// GetSystem returns a system by ID, or nil if it does not exist.
func GetSystem(ctx context.Context, ds docstore.Store, id string) (*model.System, error) {
	return get[model.System](ctx, ds, CollectionSystems, id)
}

func systemsQuery() docstore.Query {
	return docstore.From(CollectionSystems).Order(docstore.Asc("name"))
}

func availableSystemsQuery() docstore.Query {
	return docstore.From(CollectionSystems).
		Where("available", docstore.Eq, true).
		Order(docstore.Asc("name"))
}

// ListSystems returns the inventory ordered by name.
func ListSystems(ctx context.Context, ds docstore.Store) ([]model.System, error) {
	return list[model.System](ctx, ds, systemsQuery())
}

// ListAvailableSystems returns available systems ordered by name.
func ListAvailableSystems(ctx context.Context, ds docstore.Store) ([]model.System, error) {
	return list[model.System](ctx, ds, availableSystemsQuery())
}

// SubscribeSystems streams the inventory ordered by name.
func SubscribeSystems(ctx context.Context, ds docstore.Store) (*docstore.Subscription, error) {
	return ds.Subscribe(ctx, systemsQuery())
}

// SubscribeAvailableSystems streams available systems ordered by name.
func SubscribeAvailableSystems(ctx context.Context, ds docstore.Store) (*docstore.Subscription, error) {
	return ds.Subscribe(ctx, availableSystemsQuery())
}

// Match is the answer to "what can I get for these needs".
type Match struct {
	Recommendation rules.Recommendation `json:"recommendation"`
	Systems        []model.System       `json:"systems"`
}

// MatchSystems recommends a system type for req and lists the available
// systems that satisfy it.
func MatchSystems(ctx context.Context, ds docstore.Store, req rules.Requirements) (*Match, error) {
	available, err := ListAvailableSystems(ctx, ds)
	if err != nil {
		return nil, err
	}
	return &Match{
		Recommendation: rules.Recommend(req),
		Systems:        rules.FindAvailable(available, req),
	}, nil
}

// SystemAlert is a system with at least one maintenance alert.
type SystemAlert struct {
	System model.System `json:"system"`
	rules.Alerts
}

// ListMaintenanceAlerts returns every system with a raised alert at the
// calendar date of at.
func ListMaintenanceAlerts(ctx context.Context, ds docstore.Store, at time.Time) ([]SystemAlert, error) {
	systems, err := ListSystems(ctx, ds)
	if err != nil {
		return nil, err
	}
	alerts := []SystemAlert{}
	for _, s := range systems {
		if a := rules.MaintenanceAlerts(s, at); a.Any() {
			alerts = append(alerts, SystemAlert{System: s, Alerts: a})
		}
	}
	return alerts, nil
}

type systemImage struct {
	ID        string `json:"id"`
	Data      string `json:"data"`
	MIME      string `json:"mime"`
	UpdatedAt string `json:"updatedAt"`
}

// SetSystemImage stores the photo of a system.
func SetSystemImage(ctx context.Context, ds docstore.Store, id string, data []byte, mime string) error {
	existing, err := GetSystem(ctx, ds, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("system %s: %w", id, ErrNotFound)
	}
	fields, err := docstore.Encode(systemImage{
		Data:      base64.StdEncoding.EncodeToString(data),
		MIME:      mime,
		UpdatedAt: model.Timestamp(now()),
	})
	if err != nil {
		return err
	}
	if err := ds.Set(ctx, CollectionSystemImages, id, fields); err != nil {
		return fmt.Errorf("storing image: %w", err)
	}
	return nil
}

// GetSystemImage returns the photo of a system. data is nil if there is none.
func GetSystemImage(ctx context.Context, ds docstore.Store, id string) (data []byte, mime string, err error) {
	img, err := get[systemImage](ctx, ds, CollectionSystemImages, id)
	if err != nil || img == nil {
		return nil, "", err
	}
	data, err = base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	return data, img.MIME, nil
}
