package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/igralnica/internal/db"
	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/model"
)

func newTestStore(t *testing.T) docstore.Store {
	t.Helper()
	ds := docstore.NewSQLite(db.NewTestDB(t))
	t.Cleanup(func() { ds.Close() })
	return ds
}

// setClock pins the timestamp clock for the duration of a test.
func setClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func seedSystem(t *testing.T, ds docstore.Store, name string, mutate func(*model.System)) *model.System {
	t.Helper()
	s := model.NewSystem()
	s.Name = name
	if mutate != nil {
		mutate(&s)
	}
	created, err := CreateSystem(context.Background(), ds, s)
	if err != nil {
		t.Fatalf("CreateSystem(%s): %v", name, err)
	}
	return created
}

func seedUser(t *testing.T, ds docstore.Store, id, email string) *model.User {
	t.Helper()
	u, err := EnsureUser(context.Background(), ds, Identity{ID: id, Email: email, DisplayName: "User " + id})
	if err != nil {
		t.Fatalf("EnsureUser(%s): %v", id, err)
	}
	return u
}

func weekdayDraft(systemID string) RequestDraft {
	return RequestDraft{
		SystemID:    systemID,
		Unit:        "PICU",
		Room:        "12",
		StartDate:   "2024-06-10",
		Purpose:     model.PurposeCasualGaming,
		Controllers: 2,
	}
}
