package store

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/igralnica/internal/model"
	"github.com/erazemk/igralnica/internal/rules"
)

func TestCreateAndUpdateSystem(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()
	setClock(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	s := seedSystem(t, ds, "Xbox Cart 1", func(s *model.System) {
		s.SerialNumber = "XB-001"
		s.StorageLocation = "Closet B"
	})
	if s.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := GetSystem(ctx, ds, s.ID)
	if err != nil {
		t.Fatalf("GetSystem: %v", err)
	}
	if got == nil {
		t.Fatal("system not found")
	}
	if got.Name != "Xbox Cart 1" || got.SerialNumber != "XB-001" || !got.Available {
		t.Errorf("unexpected system: %+v", got)
	}
	if !got.Cables.HDMI || !got.Cables.Power || got.Cables.Ethernet {
		t.Errorf("unexpected default cables: %+v", got.Cables)
	}

	setClock(t, time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC))
	edit := *got
	edit.Controllers = 4
	edit.Cables.Ethernet = true
	updated, err := UpdateSystem(ctx, ds, s.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, s.CreatedAt, updated.CreatedAt, "creation time is kept")
	assert.Equal(t, "2024-05-02T12:00:00.000Z", updated.UpdatedAt)

	got, err = GetSystem(ctx, ds, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Controllers)
	assert.True(t, got.Cables.Ethernet)

	_, err = UpdateSystem(ctx, ds, "missing", edit)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSystemValidation(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*model.System)
		field  string
	}{
		{"no name", func(s *model.System) { s.Name = "" }, "name"},
		{"unknown type", func(s *model.System) { s.Type = "Dreamcast" }, "type"},
		{"negative controllers", func(s *model.System) { s.Controllers = -1 }, "controllers"},
		{"bad reset date", func(s *model.System) { s.SystemReset = "soon" }, "systemReset"},
		{"bad maintenance date", func(s *model.System) { s.LastMaintenance = "2024-13-01" }, "lastMaintenance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := model.NewSystem()
			s.Name = "Test"
			tt.mutate(&s)
			_, err := CreateSystem(ctx, ds, s)
			var v *ValidationError
			if !errors.As(err, &v) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if v.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, v.Field)
			}
		})
	}
}

func TestListSystemsAndAvailability(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()

	c := seedSystem(t, ds, "Charlie", nil)
	seedSystem(t, ds, "Alpha", nil)
	seedSystem(t, ds, "Bravo", nil)

	require.NoError(t, SetAvailability(ctx, ds, c.ID, false))

	all, err := ListSystems(ctx, ds)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, names(all))

	available, err := ListAvailableSystems(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Bravo"}, names(available))

	assert.ErrorIs(t, SetAvailability(ctx, ds, "missing", true), ErrNotFound)
}

func names(systems []model.System) []string {
	out := make([]string, len(systems))
	for i, s := range systems {
		out[i] = s.Name
	}
	return out
}

func TestMatchSystems(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()

	seedSystem(t, ds, "Quest B", func(s *model.System) {
		s.Type = model.SystemQuest2
		s.Controllers = 2
		s.Cables = model.Cables{USB: true, Power: true}
	})
	seedSystem(t, ds, "Quest A", func(s *model.System) {
		s.Type = model.SystemQuest2
		s.Controllers = 2
		s.Cables = model.Cables{USB: true, Power: true}
	})
	seedSystem(t, ds, "Quest C", func(s *model.System) {
		s.Type = model.SystemQuest2
		s.Controllers = 2
		s.Available = false
	})
	seedSystem(t, ds, "Cart", nil)

	m, err := MatchSystems(ctx, ds, rules.Requirements{
		Purpose:     model.PurposeVRDemo,
		Controllers: 1,
		NeedsUSB:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.SystemQuest2, m.Recommendation.Type)
	assert.Equal(t, []string{"Quest A", "Quest B"}, names(m.Systems))

	m, err = MatchSystems(ctx, ds, rules.Requirements{
		Purpose:       model.PurposeCasualGaming,
		Controllers:   2,
		NeedsEthernet: true,
	})
	require.NoError(t, err)
	assert.NotNil(t, m.Systems)
	assert.Empty(t, m.Systems, "no available system has ethernet")
}

func TestListMaintenanceAlerts(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	seedSystem(t, ds, "Fine", func(s *model.System) {
		s.SystemReset = "2024-09-01"
		s.LastMaintenance = "2024-06-01"
	})
	seedSystem(t, ds, "Reset soon", func(s *model.System) { s.SystemReset = "2024-07-01" })
	seedSystem(t, ds, "Reset overdue", func(s *model.System) { s.SystemReset = "2024-06-14" })
	seedSystem(t, ds, "Needs service", func(s *model.System) { s.LastMaintenance = "2024-04-16" })
	seedSystem(t, ds, "Undated", nil)

	alerts, err := ListMaintenanceAlerts(ctx, ds, at)
	require.NoError(t, err)
	require.Len(t, alerts, 3)

	byName := map[string]rules.Alerts{}
	for _, a := range alerts {
		byName[a.System.Name] = a.Alerts
	}
	assert.Equal(t, rules.Alerts{ResetDueSoon: true}, byName["Reset soon"])
	assert.Equal(t, rules.Alerts{ResetOverdue: true}, byName["Reset overdue"])
	assert.Equal(t, rules.Alerts{MaintenanceOverdue: true}, byName["Needs service"])
}

func TestSystemImage(t *testing.T) {
	ds := newTestStore(t)
	ctx := context.Background()

	s := seedSystem(t, ds, "Switch 1", nil)

	data, mime, err := GetSystemImage(ctx, ds, s.ID)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Empty(t, mime)

	photo := []byte{0xff, 0xd8, 0xff, 0x00, 0x01, 0x02}
	require.NoError(t, SetSystemImage(ctx, ds, s.ID, photo, "image/jpeg"))

	data, mime, err = GetSystemImage(ctx, ds, s.ID)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(photo, data))
	assert.Equal(t, "image/jpeg", mime)

	assert.ErrorIs(t, SetSystemImage(ctx, ds, "missing", photo, "image/jpeg"), ErrNotFound)

	require.NoError(t, DeleteSystem(ctx, ds, s.ID))
	data, _, err = GetSystemImage(ctx, ds, s.ID)
	require.NoError(t, err)
	assert.Nil(t, data, "deleting a system removes its photo")

	got, err := GetSystem(ctx, ds, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, DeleteSystem(ctx, ds, s.ID), ErrNotFound)
}
