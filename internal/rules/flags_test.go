package rules

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestComputeFlags(t *testing.T) {
	tests := []struct {
		name        string
		start, end  string
		controllers int
		want        []string
	}{
		{"no start date", "", "2024-06-20", 9, []string{}},
		{"weekday single day", "2024-06-10", "", 2, []string{}},
		{"saturday high count", "2024-06-01", "", 5, []string{"Weekend pickup", "High controller count"}},
		{"sunday", "2024-06-02", "2024-06-02", 1, []string{"Weekend pickup"}},
		{"eleven days", "2024-06-10", "2024-06-20", 2, []string{"Extended duration (11 days)"}},
		{"exactly seven days", "2024-06-10", "2024-06-16", 4, []string{}},
		{"eight days", "2024-06-10", "2024-06-17", 4, []string{"Extended duration (8 days)"}},
		{"all three", "2024-06-08", "2024-06-30", 6, []string{"Extended duration (23 days)", "Weekend pickup", "High controller count"}},
		{"bad start", "06/10/2024", "", 9, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeFlags(tt.start, tt.end, tt.controllers))
		})
	}
}

func TestComputeFlagsNoStartProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		end := rapid.SampledFrom([]string{"", "2024-01-01", "2030-12-31"}).Draw(t, "end")
		controllers := rapid.IntRange(-5, 50).Draw(t, "controllers")
		if got := ComputeFlags("", end, controllers); len(got) != 0 {
			t.Fatalf("expected no flags without a start date, got %v", got)
		}
	})
}

func TestComputeFlagsIndependentChecks(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rapid.Check(t, func(t *rapid.T) {
		start := base.AddDate(0, 0, rapid.IntRange(0, 730).Draw(t, "offset"))
		span := rapid.IntRange(1, 30).Draw(t, "span")
		end := start.AddDate(0, 0, span-1)
		controllers := rapid.IntRange(1, 10).Draw(t, "controllers")

		got := ComputeFlags(start.Format("2006-01-02"), end.Format("2006-01-02"), controllers)

		var want []string
		if span > MaxStandardDays {
			want = append(want, fmt.Sprintf("Extended duration (%d days)", span))
		}
		if wd := start.Weekday(); wd == time.Saturday || wd == time.Sunday {
			want = append(want, FlagWeekendPickup)
		}
		if controllers > MaxStandardControllers {
			want = append(want, FlagHighControllerCount)
		}
		if len(want) != len(got) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("got %v, want %v", got, want)
			}
		}
	})
}

func TestSpanDays(t *testing.T) {
	d := func(s string) time.Time {
		v, _ := time.Parse("2006-01-02", s)
		return v
	}
	assert.Equal(t, 1, SpanDays(d("2024-06-10"), d("2024-06-10")))
	assert.Equal(t, 11, SpanDays(d("2024-06-10"), d("2024-06-20")))
	// Across a leap day.
	assert.Equal(t, 3, SpanDays(d("2024-02-28"), d("2024-03-01")))
}
