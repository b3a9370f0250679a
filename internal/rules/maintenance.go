package rules

import (
	"time"

	"github.com/erazemk/igralnica/internal/model"
)

// Alert windows.
const (
	ResetWarningDays        = 30
	MaintenanceIntervalDays = 60
)

// Alerts are the maintenance states derived from a system's dates.
type Alerts struct {
	ResetDueSoon       bool `json:"resetDueSoon"`
	ResetOverdue       bool `json:"resetOverdue"`
	MaintenanceOverdue bool `json:"maintenanceOverdue"`
}

// Any reports whether at least one alert is raised.
func (a Alerts) Any() bool {
	return a.ResetDueSoon || a.ResetOverdue || a.MaintenanceOverdue
}

// MaintenanceAlerts derives the alerts of s at the calendar date of now.
// Unset or malformed dates raise nothing.
func MaintenanceAlerts(s model.System, now time.Time) Alerts {
	today := model.Today(now)
	var a Alerts

	if reset, err := parseOptionalDate(s.SystemReset); err == nil && !reset.IsZero() {
		a.ResetDueSoon = !reset.Before(today) && !reset.After(today.AddDate(0, 0, ResetWarningDays))
		a.ResetOverdue = reset.Before(today)
	}
	if last, err := parseOptionalDate(s.LastMaintenance); err == nil && !last.IsZero() {
		a.MaintenanceOverdue = !last.After(today.AddDate(0, 0, -MaintenanceIntervalDays))
	}
	return a
}

// ResetDueSoon reports a reset date within the next 30 days, today included.
func ResetDueSoon(s model.System, now time.Time) bool {
	return MaintenanceAlerts(s, now).ResetDueSoon
}

// ResetOverdue reports a reset date before today.
func ResetOverdue(s model.System, now time.Time) bool {
	return MaintenanceAlerts(s, now).ResetOverdue
}

// MaintenanceOverdue reports maintenance last done 60 or more days ago.
func MaintenanceOverdue(s model.System, now time.Time) bool {
	return MaintenanceAlerts(s, now).MaintenanceOverdue
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	// Stored values are dates, but tolerate full timestamps.
	if len(s) > len(model.DateLayout) {
		s = s[:len(model.DateLayout)]
	}
	return model.ParseDate(s)
}
