package rules

import (
	"fmt"
	"time"

	"github.com/erazemk/igralnica/internal/model"
)

// Review thresholds.
const (
	MaxStandardDays        = 7
	MaxStandardControllers = 4
)

// Flag texts without parameters.
const (
	FlagWeekendPickup       = "Weekend pickup"
	FlagHighControllerCount = "High controller count"
)

// ComputeFlags returns the review flags for a request, in a fixed order:
// extended duration, weekend pickup, high controller count. A missing or
// unparseable start date yields no flags. An empty end date means a
// single-day request.
func ComputeFlags(startDate, endDate string, controllers int) []string {
	flags := []string{}
	if startDate == "" {
		return flags
	}
	start, err := model.ParseDate(startDate)
	if err != nil {
		return flags
	}
	end := start
	if endDate != "" {
		if end, err = model.ParseDate(endDate); err != nil {
			end = start
		}
	}

	if days := SpanDays(start, end); days > MaxStandardDays {
		flags = append(flags, fmt.Sprintf("Extended duration (%d days)", days))
	}
	if wd := start.Weekday(); wd == time.Saturday || wd == time.Sunday {
		flags = append(flags, FlagWeekendPickup)
	}
	if controllers > MaxStandardControllers {
		flags = append(flags, FlagHighControllerCount)
	}
	return flags
}

// SpanDays returns the inclusive number of calendar days from start to end.
func SpanDays(start, end time.Time) int {
	hours := end.Sub(start).Hours()
	days := int(hours / 24)
	if float64(days)*24 < hours {
		days++
	}
	return days + 1
}
