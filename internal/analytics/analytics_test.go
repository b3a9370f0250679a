package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/igralnica/internal/db"
	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/model"
	"github.com/erazemk/igralnica/internal/store"
)

func req(system, status string) model.Request {
	return model.Request{SystemName: system, Status: status}
}

func TestSummarize(t *testing.T) {
	requests := []model.Request{
		req("Cart 1", model.StatusReturned),
		req("Cart 1", model.StatusReturned),
		req("Cart 1", model.StatusCheckedOut),
		req("Bag 1", model.StatusPendingReview),
		req("Bag 1", model.StatusPendingConfirmation),
		req("Quest", model.StatusConfirmed),
		req("Switch", model.StatusRejected),
		req("Alpha", model.StatusPendingReturn),
		req("Zed", model.StatusReturned),
	}
	systems := []model.System{
		{Name: "Cart 1", Available: false},
		{Name: "Bag 1", Available: true},
		{Name: "Quest", Available: true},
	}

	s := Summarize(requests, systems)
	assert.Equal(t, 9, s.TotalRequests)
	assert.Equal(t, 3, s.Completed)
	assert.Equal(t, 1, s.Active)
	assert.Equal(t, 3, s.Pending)
	assert.Equal(t, 3, s.TotalSystems)
	assert.Equal(t, 2, s.AvailableSystems)
	assert.Equal(t, "66.7", s.Utilization.String())

	require.Len(t, s.MostRequested, TopSystems)
	got := make([]string, len(s.MostRequested))
	for i, c := range s.MostRequested {
		got[i] = c.SystemName
	}
	// Ties are broken by name; "Zed" falls off the list.
	assert.Equal(t, []string{"Cart 1", "Bag 1", "Alpha", "Quest", "Switch"}, got)
	assert.Equal(t, 3, s.MostRequested[0].Count)
	assert.Equal(t, "33.3", s.MostRequested[0].Share.String())
	assert.Equal(t, "22.2", s.MostRequested[1].Share.String())
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil)
	assert.True(t, s.Utilization.IsZero())
	assert.NotNil(t, s.MostRequested)
	assert.Empty(t, s.MostRequested)
}

func TestLoadAndReturns(t *testing.T) {
	ds := docstore.NewSQLite(db.NewTestDB(t))
	defer ds.Close()
	ctx := context.Background()

	sysNew := model.NewSystem()
	sysNew.Name = "PS5 Cart 1"
	sys, err := store.CreateSystem(ctx, ds, sysNew)
	require.NoError(t, err)
	user, err := store.EnsureUser(ctx, ds, store.Identity{ID: "u1", Email: "u1@example.org"})
	require.NoError(t, err)

	r, err := store.CreateRequest(ctx, ds, user, store.RequestDraft{
		SystemID:  sys.ID,
		Unit:      "NICU",
		Room:      "3",
		StartDate: "2024-06-10",
		Purpose:   model.PurposeTournament,
	})
	require.NoError(t, err)
	_, err = store.Approve(ctx, ds, r.ID)
	require.NoError(t, err)
	_, err = store.Checkout(ctx, ds, r.ID)
	require.NoError(t, err)

	summary, err := Load(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Active)
	assert.Equal(t, "0", summary.Utilization.String())

	returns, err := LoadReturns(ctx, ds, time.Now().Add(8*24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, returns.CheckedOut, 1)
	require.Len(t, returns.Overdue, 1)
	assert.Equal(t, 8, returns.Overdue[0].DaysOverdue)
	assert.Empty(t, returns.Pending)
	assert.Empty(t, returns.Returned)
}
