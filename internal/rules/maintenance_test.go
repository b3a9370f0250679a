package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/erazemk/igralnica/internal/model"
)

func TestMaintenanceAlerts(t *testing.T) {
	now := time.Date(2024, 6, 15, 16, 45, 0, 0, time.UTC)

	tests := []struct {
		name             string
		reset, lastMaint string
		want             Alerts
	}{
		{"nothing set", "", "", Alerts{}},
		{"reset today", "2024-06-15", "", Alerts{ResetDueSoon: true}},
		{"reset in 30 days", "2024-07-15", "", Alerts{ResetDueSoon: true}},
		{"reset in 31 days", "2024-07-16", "", Alerts{}},
		{"reset yesterday", "2024-06-14", "", Alerts{ResetOverdue: true}},
		{"maintenance 60 days ago", "", "2024-04-16", Alerts{MaintenanceOverdue: true}},
		{"maintenance 59 days ago", "", "2024-04-17", Alerts{}},
		{"maintenance long ago", "", "2023-01-01", Alerts{MaintenanceOverdue: true}},
		{"timestamp tolerated", "2024-06-20T00:00:00.000Z", "", Alerts{ResetDueSoon: true}},
		{"malformed", "soon", "never", Alerts{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := model.System{SystemReset: tt.reset, LastMaintenance: tt.lastMaint}
			got := MaintenanceAlerts(s, now)
			assert.Equal(t, tt.want, got)
			// Pure: a second evaluation agrees.
			assert.Equal(t, got, MaintenanceAlerts(s, now))
			assert.Equal(t, got.ResetDueSoon, ResetDueSoon(s, now))
			assert.Equal(t, got.ResetOverdue, ResetOverdue(s, now))
			assert.Equal(t, got.MaintenanceOverdue, MaintenanceOverdue(s, now))
		})
	}
}
