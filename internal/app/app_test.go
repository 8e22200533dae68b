package app

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/nhle/health-alerts/internal/api"
	"github.com/nhle/health-alerts/internal/geo"
	"github.com/nhle/health-alerts/internal/model"
	"github.com/nhle/health-alerts/internal/state"
	appsync "github.com/nhle/health-alerts/internal/sync"
	"github.com/nhle/health-alerts/internal/ui/command"
	"github.com/nhle/health-alerts/internal/ui/notifications"
	"github.com/nhle/health-alerts/internal/ui/permission"
	"github.com/nhle/health-alerts/internal/ui/settings"
	"github.com/nhle/health-alerts/tests/testutil"
)

type fakeBackend struct {
	mu      sync.Mutex
	unread  int
	marked  []string
	markAll int
}

func (f *fakeBackend) UnreadNotifications(context.Context) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return make([]model.Notification, f.unread), nil
}

func (f *fakeBackend) MarkNotificationRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	if f.unread > 0 {
		f.unread--
	}
	return nil
}

func (f *fakeBackend) MarkAllNotificationsRead(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markAll++
	f.unread = 0
	return nil
}

func (f *fakeBackend) UpdateLocation(context.Context, api.LocationUpdate) error { return nil }

func (f *fakeBackend) UpdateProfileLocation(context.Context, model.Coordinates) error { return nil }

func (f *fakeBackend) ListNotifications(context.Context, api.ListOptions) (*api.NotificationPage, error) {
	return &api.NotificationPage{Last: true}, nil
}

func (f *fakeBackend) CurrentUser(context.Context) (*model.UserProfile, error) {
	return &model.UserProfile{Email: "user@example.org"}, nil
}

func (f *fakeBackend) NearbyAlerts(context.Context, model.Coordinates) ([]model.Alert, error) {
	return nil, nil
}

type harness struct {
	model   Model
	backend *fakeBackend
	consent *geo.Consent
	toasts  *state.ToastQueue
	svc     *state.Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	backend := &fakeBackend{unread: 3}
	consent := geo.NewConsent(model.PermissionUnknown)
	toasts := state.NewToastQueue(8)
	svc := state.New(ctx, state.Deps{
		Backend:  backend,
		Locator:  geo.NewGate(consent, geo.StaticLocator{At: model.Coordinates{Latitude: 1, Longitude: 2}}),
		Store:    testutil.NewTestStore(t),
		Notifier: toasts,
	})
	t.Cleanup(svc.Close)

	m := New(Deps{
		Services: svc,
		Backend:  backend,
		Poller:   appsync.New(),
		Consent:  consent,
		Toasts:   toasts,
		Polling:  model.PollingConfig{HeaderIntervalSec: 3600, DashboardIntervalSec: 3600, NearbyIntervalSec: 3600},
	})
	t.Cleanup(m.Shutdown)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return &harness{model: updated.(Model), backend: backend, consent: consent, toasts: toasts, svc: svc}
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	updated, cmd := h.model.Update(msg)
	h.model = updated.(Model)
	return cmd
}

func permissionDecision(allow bool) tea.Msg {
	return permission.DecisionMsg{Allow: allow}
}

func TestViewShowsTitle(t *testing.T) {
	h := newHarness(t)
	require.Contains(t, h.model.View(), "Health Alerts")
}

func TestInitMountsHeaderAndDashboardSurfaces(t *testing.T) {
	h := newHarness(t)
	h.model.Init()

	names := []string{}
	for _, s := range h.model.poller.Statuses() {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{appsync.SurfaceHeader, appsync.SurfaceDashboard, appsync.SurfaceNearby}, names)
}

func TestUnreadChangeUpdatesBadge(t *testing.T) {
	h := newHarness(t)
	h.svc.Notifications.FetchUnreadCount(context.Background())

	h.update(unreadChangedMsg{})
	require.Equal(t, 3, h.model.unread)
}

func TestOpeningNotificationMarksItRead(t *testing.T) {
	h := newHarness(t)
	h.model.Init()
	h.svc.Notifications.FetchUnreadCount(context.Background())

	cmd := h.update(notifications.SelectedNotificationMsg{Notification: model.Notification{ID: "n1", Title: "Pollen"}})
	require.Equal(t, ViewDetail, h.model.currentView)
	require.Len(t, h.model.poller.Statuses(), 1, "dashboard surfaces unmount with the dashboard")

	require.NotNil(t, cmd)
	done, ok := cmd().(markReadDoneMsg)
	require.True(t, ok)
	require.True(t, done.ok)
	require.Equal(t, []string{"n1"}, h.backend.marked)
	require.Equal(t, 2, h.svc.Notifications.UnreadCount())

	back := h.update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, back)
	h.update(back())
	require.Equal(t, ViewDashboard, h.model.currentView)
	require.Len(t, h.model.poller.Statuses(), 3)
}

func TestOpeningReadNotificationSkipsBackend(t *testing.T) {
	h := newHarness(t)

	cmd := h.update(notifications.SelectedNotificationMsg{Notification: model.Notification{ID: "n1", Read: true}})
	require.Nil(t, cmd)
	require.Empty(t, h.backend.marked)
}

func TestMarkAllReadKey(t *testing.T) {
	h := newHarness(t)

	cmd := h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	require.NotNil(t, cmd)
	done := cmd().(markAllDoneMsg)
	require.True(t, done.ok)
	require.Equal(t, 1, h.backend.markAll)
	require.Zero(t, h.svc.Notifications.UnreadCount())
}

func TestLocationToggleAsksForConsentFirst(t *testing.T) {
	h := newHarness(t)

	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")})
	require.Equal(t, ViewPermission, h.model.currentView)
	require.True(t, h.svc.Location.Snapshot().PermissionDialogShown)

	cmd := h.update(permissionDecision(true))
	require.Equal(t, ViewDashboard, h.model.currentView)
	require.Equal(t, model.PermissionEnabled, h.consent.State())

	done := cmd().(locationDoneMsg)
	require.True(t, done.ok)
	require.True(t, h.svc.Location.Snapshot().LocationAllowed)
}

func TestLocationRefusalFailsAsPermissionDenied(t *testing.T) {
	h := newHarness(t)
	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")})

	cmd := h.update(permissionDecision(false))
	require.Equal(t, model.PermissionDisabled, h.consent.State())

	done := cmd().(locationDoneMsg)
	require.False(t, done.ok)
	require.False(t, h.svc.Location.Snapshot().LocationAllowed)

	toast := <-h.toasts.C()
	require.Equal(t, state.ToastError, toast.Level)
}

func TestLocationToggleDisablesWhenOn(t *testing.T) {
	h := newHarness(t)
	h.consent.Grant()
	require.True(t, h.svc.Notifications.EnableLocationServices(context.Background()))
	h.update(locationChangedMsg{})

	cmd := h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")})
	require.Equal(t, ViewDashboard, h.model.currentView)

	done := cmd().(locationDoneMsg)
	require.True(t, done.ok)
	require.False(t, done.enabled)
	require.False(t, h.svc.Location.Snapshot().LocationAllowed)
}

func TestToastExpires(t *testing.T) {
	h := newHarness(t)

	h.update(toastMsg{toast: state.Toast{ID: "t1", Message: "hello"}})
	require.Contains(t, h.model.View(), "hello")

	h.update(toastExpiredMsg{id: "other"})
	require.NotNil(t, h.model.toast)
	h.update(toastExpiredMsg{id: "t1"})
	require.Nil(t, h.model.toast)
}

func TestSettingsCommandWithoutConfigPath(t *testing.T) {
	h := newHarness(t)
	h.update(command.CommandMsg("settings"))

	require.Equal(t, ViewDashboard, h.model.currentView)
	require.NotNil(t, h.model.toast)
	require.Equal(t, state.ToastError, h.model.toast.Level)
}

func TestSettingsSavedReturnsToDashboard(t *testing.T) {
	h := newHarness(t)
	h.model.configPath = "config.yaml"
	h.update(command.CommandMsg("settings"))
	require.Equal(t, ViewSettings, h.model.currentView)

	h.update(settings.SavedMsg{Config: &model.AppConfig{}})
	require.Equal(t, ViewDashboard, h.model.currentView)
	require.Equal(t, state.ToastSuccess, h.model.toast.Level)
}
