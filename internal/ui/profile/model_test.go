package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/health-alerts/internal/model"
	"github.com/nhle/health-alerts/internal/state"
)

type fakeUsers struct {
	user *model.UserProfile
}

func (f fakeUsers) CurrentUser(context.Context) (*model.UserProfile, error) {
	return f.user, nil
}

func TestProfileRendersUserAndLocation(t *testing.T) {
	m := New(fakeUsers{user: &model.UserProfile{FullName: "Ada Lovelace", Email: "ada@example.org"}}, 80, 24)
	m, _ = m.Update(m.Load()())

	lat, lng := 1.5, 2.5
	m.SetLocation(state.LocationSnapshot{LocationAllowed: true, Latitude: &lat, Longitude: &lng})

	view := m.View()
	require.Contains(t, view, "Ada Lovelace")
	require.Contains(t, view, "sharing")
	require.Contains(t, view, "stop sharing")
}

func TestSummary(t *testing.T) {
	require.Equal(t, "location off", Summary(state.LocationSnapshot{}))
	require.Equal(t, "📍 on", Summary(state.LocationSnapshot{LocationAllowed: true}))
}
