package model

import (
	"fmt"
	"time"
)

// TimestampLayout matches the millisecond UTC form used by the web client.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DateLayout is the calendar-date form of request and maintenance dates.
const DateLayout = "2006-01-02"

// Timestamp formats t as a stored timestamp string.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a stored timestamp string.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		// Older documents may carry RFC 3339 without milliseconds.
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}

// ParseDate parses a calendar date (YYYY-MM-DD) at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// Today truncates now to its calendar date in UTC.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
