// Package analytics computes the admin dashboard figures from the request
// and system collections.
package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/model"
	"github.com/erazemk/igralnica/internal/store"
)

// TopSystems is the length of the most requested list.
const TopSystems = 5

// RecentReturns is the length of the returned list in the returns view.
const RecentReturns = 20

var hundred = decimal.NewFromInt(100)

// SystemCount is how often one system was requested.
type SystemCount struct {
	SystemName string          `json:"systemName"`
	Count      int             `json:"count"`
	Share      decimal.Decimal `json:"share"`
}

// Summary holds the dashboard totals.
type Summary struct {
	TotalRequests    int             `json:"totalRequests"`
	Completed        int             `json:"completed"`
	Active           int             `json:"active"`
	Pending          int             `json:"pending"`
	TotalSystems     int             `json:"totalSystems"`
	AvailableSystems int             `json:"availableSystems"`
	Utilization      decimal.Decimal `json:"utilization"`
	MostRequested    []SystemCount   `json:"mostRequested"`
}

// percent returns part/whole as a percentage rounded to one decimal place,
// or zero for an empty whole.
func percent(part, whole int) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(whole))).
		Round(1)
}

// Summarize computes the totals over requests and systems.
func Summarize(requests []model.Request, systems []model.System) Summary {
	s := Summary{
		TotalRequests: len(requests),
		TotalSystems:  len(systems),
		MostRequested: []SystemCount{},
	}

	counts := make(map[string]int)
	for _, r := range requests {
		switch r.Status {
		case model.StatusReturned:
			s.Completed++
		case model.StatusCheckedOut:
			s.Active++
		case model.StatusPendingConfirmation, model.StatusPendingReview, model.StatusConfirmed:
			s.Pending++
		}
		counts[r.SystemName]++
	}

	for _, sys := range systems {
		if sys.Available {
			s.AvailableSystems++
		}
	}
	s.Utilization = percent(s.AvailableSystems, s.TotalSystems)

	for name, n := range counts {
		s.MostRequested = append(s.MostRequested, SystemCount{SystemName: name, Count: n})
	}
	sort.Slice(s.MostRequested, func(i, j int) bool {
		a, b := s.MostRequested[i], s.MostRequested[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.SystemName < b.SystemName
	})
	if len(s.MostRequested) > TopSystems {
		s.MostRequested = s.MostRequested[:TopSystems]
	}
	for i := range s.MostRequested {
		s.MostRequested[i].Share = percent(s.MostRequested[i].Count, s.TotalRequests)
	}
	return s
}

// Load reads both collections and summarizes them.
func Load(ctx context.Context, ds docstore.Store) (*Summary, error) {
	requests, err := store.ListRequests(ctx, ds)
	if err != nil {
		return nil, err
	}
	systems, err := store.ListSystems(ctx, ds)
	if err != nil {
		return nil, err
	}
	s := Summarize(requests, systems)
	return &s, nil
}

// Returns is the admin view of outstanding and completed returns.
type Returns struct {
	Pending    []model.Request        `json:"pending"`
	CheckedOut []model.Request        `json:"checkedOut"`
	Overdue    []store.OverdueRequest `json:"overdue"`
	Returned   []model.Request        `json:"returned"`
}

// LoadReturns builds the returns view at time at.
func LoadReturns(ctx context.Context, ds docstore.Store, at time.Time) (*Returns, error) {
	var (
		r   Returns
		err error
	)
	if r.Pending, err = store.ListPendingReturns(ctx, ds); err != nil {
		return nil, err
	}
	if r.CheckedOut, err = store.ListCheckedOut(ctx, ds); err != nil {
		return nil, err
	}
	if r.Overdue, err = store.ListOverdueReturns(ctx, ds, at); err != nil {
		return nil, err
	}
	if r.Returned, err = store.ListReturnHistory(ctx, ds, RecentReturns); err != nil {
		return nil, err
	}
	return &r, nil
}
