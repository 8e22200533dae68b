package detail

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/nhle/health-alerts/internal/keys"
	"github.com/nhle/health-alerts/internal/model"
)

func TestShowMarksDisplayCopyRead(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.now = func() time.Time { return now }

	m.Show(model.Notification{ID: "n1", Title: "Air quality warning", Description: "Stay indoors."})

	n, ok := m.Current()
	require.True(t, ok)
	require.True(t, n.Read)
	require.Equal(t, now, *n.ReadAt)
	require.Contains(t, m.View(), "Air quality warning")
}

func TestEscGoesBack(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	require.IsType(t, BackMsg{}, cmd())
}

func TestEmptyView(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	_, ok := m.Current()
	require.False(t, ok)
	require.Contains(t, m.View(), "No notification selected")
}
