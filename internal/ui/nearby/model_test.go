package nearby

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nhle/health-alerts/internal/model"
)

func TestExpiredAlertsAreHidden(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	m := New(100, 20)
	m.now = func() time.Time { return now }

	m, _ = m.Update(AlertsLoadedMsg{
		At: model.Coordinates{Latitude: 1, Longitude: 2},
		Alerts: []model.Alert{
			{ID: "a", Title: "Old", ExpiresAt: &past},
			{ID: "b", Title: "Live", ExpiresAt: &future},
			{ID: "c", Title: "Open ended"},
		},
	})

	require.Len(t, m.Alerts(), 2)
	require.Equal(t, "b", m.Alerts()[0].ID)
	require.Contains(t, m.View(), "Live")
}

func TestViewWithoutLocation(t *testing.T) {
	m := New(100, 20)
	require.Contains(t, m.View(), "Location is off")
}

func TestErrorKeepsPreviousAlerts(t *testing.T) {
	m := New(100, 20)
	m, _ = m.Update(AlertsLoadedMsg{
		At:     model.Coordinates{Latitude: 1, Longitude: 2},
		Alerts: []model.Alert{{ID: "a", Title: "Smoke"}},
	})
	m, _ = m.Update(AlertsLoadedMsg{Err: errors.New("down")})

	require.Len(t, m.Alerts(), 1)
	require.Contains(t, m.View(), "Smoke")
}

func TestEmptyResult(t *testing.T) {
	m := New(100, 20)
	m, _ = m.Update(AlertsLoadedMsg{At: model.Coordinates{Latitude: 1, Longitude: 2}})

	require.Contains(t, m.View(), "No active alerts")
}
