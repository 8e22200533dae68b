package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
)

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := map[time.Duration]string{
		10 * time.Second:    "just now",
		5 * time.Minute:     "5m ago",
		3 * time.Hour:       "3h ago",
		2 * 24 * time.Hour:  "2d ago",
		21 * 24 * time.Hour: "3w ago",
	}
	for ago, want := range cases {
		require.Equal(t, want, RelativeTime(now.Add(-ago), now), ago.String())
	}
	require.Empty(t, RelativeTime(time.Time{}, now))
}

func TestDistance(t *testing.T) {
	require.Empty(t, Distance(0))
	require.Equal(t, "250 m", Distance(0.25))
	require.Equal(t, "3.4 km", Distance(3.42))
}

func TestBellShowsCount(t *testing.T) {
	require.NotContains(t, Bell(0), "0")
	require.Contains(t, Bell(7), "7")
	require.Contains(t, Bell(150), "99+")
}

func TestRenderHeaderFillsWidth(t *testing.T) {
	l := NewLayout(80, 24)
	header := l.RenderHeader("Health Alerts", 3, "idle")

	require.Equal(t, 80, lipgloss.Width(header))
	require.True(t, strings.Contains(header, "Health Alerts"))
	require.Equal(t, 22, l.ContentHeight())
}
