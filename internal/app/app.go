package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/health-alerts/internal/geo"
	"github.com/nhle/health-alerts/internal/keys"
	"github.com/nhle/health-alerts/internal/logging"
	"github.com/nhle/health-alerts/internal/model"
	"github.com/nhle/health-alerts/internal/state"
	appsync "github.com/nhle/health-alerts/internal/sync"
	"github.com/nhle/health-alerts/internal/ui"
	"github.com/nhle/health-alerts/internal/ui/command"
	"github.com/nhle/health-alerts/internal/ui/dashboard"
	"github.com/nhle/health-alerts/internal/ui/detail"
	helpview "github.com/nhle/health-alerts/internal/ui/help"
	"github.com/nhle/health-alerts/internal/ui/nearby"
	"github.com/nhle/health-alerts/internal/ui/notifications"
	"github.com/nhle/health-alerts/internal/ui/permission"
	"github.com/nhle/health-alerts/internal/ui/profile"
	"github.com/nhle/health-alerts/internal/ui/settings"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewDashboard ViewState = iota
	ViewDetail
	ViewPermission
	ViewHelp
	ViewCommand
	ViewSettings
)

// Backend is what the views read directly. *api.Client satisfies it.
type Backend interface {
	notifications.Lister
	profile.UserFetcher
	NearbyFetcher
}

// Deps are the long-lived collaborators of the root model.
type Deps struct {
	Services *state.Services
	Backend  Backend
	Poller   *appsync.Poller
	Consent  *geo.Consent
	Toasts   *state.ToastQueue
	Polling  model.PollingConfig
	Logger   *logging.Logger

	// Config and ConfigPath back the settings view. Without a path the
	// settings command is unavailable.
	Config     *model.AppConfig
	ConfigPath string
}

// mounts tracks the unmount funcs of mounted surfaces. It is shared by
// every copy of Model.
type mounts struct {
	header    func()
	dashboard []func()
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the bridge to the state stores.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	svc     *state.Services
	backend Backend
	poller  *appsync.Poller
	consent *geo.Consent
	toasts  *state.ToastQueue
	polling model.PollingConfig
	log     *logging.Logger
	bridge  *bridge
	mounts  *mounts

	dashboard      dashboard.Model
	detail         detail.Model
	permissionView permission.Model
	helpView       helpview.Model
	commandView    command.Model
	settingsView   settings.Model
	configPath     string

	ready    bool
	unread   int
	location state.LocationSnapshot
	toast    *state.Toast
}

// New creates the root application model.
func New(deps Deps) Model {
	k := keys.DefaultKeyMap()
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Toasts == nil {
		deps.Toasts = state.NewToastQueue(0)
	}

	m := Model{
		currentView: ViewDashboard,
		keys:        k,
		svc:         deps.Services,
		backend:     deps.Backend,
		poller:      deps.Poller,
		consent:     deps.Consent,
		toasts:      deps.Toasts,
		polling:     deps.Polling,
		log:         deps.Logger.With("subsystem", "app"),
		bridge:      newBridge(deps.Services),
		mounts:      &mounts{},
		dashboard: dashboard.New(k,
			notifications.New(deps.Backend, k, 80, 24),
			nearby.New(80, 24),
			profile.New(deps.Backend, 80, 24),
		),
		detail:         detail.New(k, 80, 24),
		permissionView: permission.New(80, 24),
		helpView:       helpview.New(k, 80, 24),
		commandView:    command.New(80, 24),
		settingsView:   settings.New(deps.ConfigPath, deps.Config, 80, 24),
		configPath:     deps.ConfigPath,
		unread:         deps.Services.Notifications.UnreadCount(),
		location:       deps.Services.Location.Snapshot(),
	}
	m.syncLocation()
	return m
}

// Init mounts the polling surfaces, starts listening to the stores and
// runs the startup location check.
func (m Model) Init() tea.Cmd {
	m.mounts.header = m.poller.Mount(appsync.UnreadSurface(
		appsync.SurfaceHeader, m.polling.HeaderInterval(), m.svc.Notifications,
	))
	m.mountDashboard()

	svc := m.svc
	return tea.Batch(
		m.dashboard.Init(),
		m.poller.WaitForNextResult(),
		m.bridge.waitUnread(),
		m.bridge.waitLocation(),
		m.bridge.waitNearby(),
		waitToast(m.toasts),
		func() tea.Msg {
			svc.Notifications.CheckLocationStatus(context.Background())
			return nil
		},
	)
}

// mountDashboard mounts the surfaces that live on the dashboard. The
// dashboard's unread surface runs its own timer next to the header's.
func (m Model) mountDashboard() {
	if len(m.mounts.dashboard) > 0 {
		return
	}
	m.mounts.dashboard = []func(){
		m.poller.Mount(appsync.UnreadSurface(
			appsync.SurfaceDashboard, m.polling.DashboardInterval(), m.svc.Notifications,
		)),
		m.poller.Mount(nearbySurface(
			m.polling.NearbyInterval(), m.svc.Location, m.backend, m.bridge,
		)),
	}
}

func (m Model) unmountDashboard() {
	for _, unmount := range m.mounts.dashboard {
		unmount()
	}
	m.mounts.dashboard = nil
}

// Shutdown unmounts every surface and detaches from the stores.
func (m Model) Shutdown() {
	m.poller.Stop()
	m.bridge.close()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.dashboard.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.permissionView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.RefreshResultMsg:
		return m, m.poller.WaitForNextResult()

	case unreadChangedMsg:
		m.unread = m.svc.Notifications.UnreadCount()
		m.dashboard.SetUnread(m.unread)
		return m, m.bridge.waitUnread()

	case locationChangedMsg:
		m.location = m.svc.Location.Snapshot()
		m.syncLocation()
		return m, m.bridge.waitLocation()

	case nearby.AlertsLoadedMsg:
		var cmd tea.Cmd
		m.dashboard, cmd = m.dashboard.Update(msg)
		return m, tea.Batch(cmd, m.bridge.waitNearby())

	case toastMsg:
		t := msg.toast
		m.toast = &t
		return m, tea.Batch(expireToast(t.ID), waitToast(m.toasts))

	case toastExpiredMsg:
		if m.toast != nil && m.toast.ID == msg.id {
			m.toast = nil
		}
		return m, nil

	case notifications.SelectedNotificationMsg:
		return m, m.openNotification(msg.Notification)

	case markReadDoneMsg:
		if msg.ok {
			m.dashboard.Notifications.MarkRead(msg.id)
		}
		return m, nil

	case markAllDoneMsg:
		if msg.ok {
			m.dashboard.Notifications.MarkAllRead()
		}
		return m, nil

	case locationDoneMsg:
		if msg.ok && msg.enabled {
			m.poller.RefreshAll()
		}
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewDashboard
		m.mountDashboard()
		return m, nil

	case permission.DecisionMsg:
		m.currentView = m.previousView
		return m, m.decidePermission(msg.Allow)

	case settings.SavedMsg:
		m.currentView = m.previousView
		if msg.Err != nil {
			m.log.Warn(context.Background(), "saving settings failed", msg.Err)
			return m, m.showToast(state.ToastError, "Settings not saved: "+msg.Err.Error())
		}
		m.settingsView.SetBase(msg.Config)
		return m, m.showToast(state.ToastSuccess, "Settings saved. Restart to apply.")

	case settings.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the active tab.
// The permission dialog and the command palette own the keyboard.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.Shutdown()
		return tea.Quit, true
	}
	if m.currentView == ViewPermission || m.currentView == ViewCommand || m.currentView == ViewSettings {
		if m.currentView == ViewCommand && key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit) && m.currentView == ViewDashboard:
		m.Shutdown()
		return tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case key.Matches(msg, m.keys.Back) && m.currentView == ViewHelp:
		m.currentView = m.previousView
		return nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true

	case key.Matches(msg, m.keys.ToggleLocation):
		return m.toggleLocation(), true

	case key.Matches(msg, m.keys.Refresh) && m.currentView == ViewDashboard:
		return m.refresh(), true

	case key.Matches(msg, m.keys.MarkAllRead) && m.currentView == ViewDashboard:
		return m.markAllRead(), true
	}

	return nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewPermission:
		m.permissionView, cmd = m.permissionView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return m, cmd
}

// syncLocation pushes the location snapshot to the views that show it.
func (m *Model) syncLocation() {
	m.dashboard.Profile.SetLocation(m.location)
	_, ok := m.location.Best()
	m.dashboard.Nearby.SetLocated(m.location.LocationAllowed && ok)
}

// openNotification shows n and, when it is unread, marks it read. The
// notification store refetches the count afterwards.
func (m *Model) openNotification(n model.Notification) tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewDetail
	m.unmountDashboard()
	m.detail.Show(n)

	if n.Read {
		return nil
	}
	notes := m.svc.Notifications
	id := n.ID
	return func() tea.Msg {
		return markReadDoneMsg{id: id, ok: notes.MarkAsRead(context.Background(), id)}
	}
}

func (m Model) markAllRead() tea.Cmd {
	notes := m.svc.Notifications
	return func() tea.Msg {
		return markAllDoneMsg{ok: notes.MarkAllAsRead(context.Background())}
	}
}

func (m Model) refresh() tea.Cmd {
	m.poller.RefreshAll()
	return tea.Batch(
		m.dashboard.Notifications.Reload(),
		m.dashboard.Profile.Load(),
	)
}

// toggleLocation disables sharing when it is on. Otherwise it asks for
// consent the first time and then enables sharing.
func (m *Model) toggleLocation() tea.Cmd {
	if m.location.IsLoading {
		return nil
	}
	if m.location.LocationAllowed {
		return m.setLocation(false)
	}
	if m.consent.State() == model.PermissionEnabled {
		return m.setLocation(true)
	}

	m.svc.Location.MarkPermissionDialogShown()
	m.previousView = m.currentView
	m.currentView = ViewPermission
	return m.permissionView.Start()
}

// decidePermission records the dialog answer and attempts to enable
// location. A refusal surfaces as a permission-denied failure.
func (m *Model) decidePermission(allow bool) tea.Cmd {
	if allow {
		m.consent.Grant()
	} else {
		m.consent.Deny()
	}
	return m.setLocation(true)
}

func (m Model) setLocation(enable bool) tea.Cmd {
	notes := m.svc.Notifications
	return func() tea.Msg {
		ctx := context.Background()
		if enable {
			return locationDoneMsg{enabled: true, ok: notes.EnableLocationServices(ctx)}
		}
		return locationDoneMsg{enabled: false, ok: notes.DisableLocationServices(ctx)}
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "refresh", "sync":
		return m.refresh()
	case "mark all read", "read all":
		return m.markAllRead()
	case "enable location":
		if m.location.LocationAllowed {
			return nil
		}
		return m.toggleLocation()
	case "disable location":
		if !m.location.LocationAllowed {
			return nil
		}
		return m.setLocation(false)
	case "notifications":
		m.showTab(dashboard.TabNotifications)
	case "nearby":
		m.showTab(dashboard.TabNearby)
	case "profile":
		m.showTab(dashboard.TabProfile)
	case "status":
		return m.showToast(state.ToastInfo, m.statusSummary())
	case "settings", "config":
		if m.configPath == "" {
			return m.showToast(state.ToastError, "No configuration file to edit")
		}
		m.previousView = m.currentView
		m.currentView = ViewSettings
		return m.settingsView.Start()
	case "quit", "q":
		m.Shutdown()
		return tea.Quit
	default:
		m.log.Debug(m.log.WithField(context.Background(), "command", cmd), "unknown command")
	}
	return nil
}

// showToast displays a locally raised message without going through the
// notifier queue.
func (m *Model) showToast(level state.ToastLevel, msg string) tea.Cmd {
	t := state.NewToast(level, msg)
	m.toast = &t
	return expireToast(t.ID)
}

func (m *Model) showTab(t dashboard.Tab) {
	m.currentView = ViewDashboard
	m.mountDashboard()
	m.dashboard.SetActive(t)
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Health Alerts", m.unread, m.syncStatus())
	content := m.renderContent()

	statusBar := m.layout.RenderStatusBar(m.keyHints())
	if m.toast != nil {
		statusBar = m.layout.RenderToast(m.toast.Level.String(), m.toast.Message)
	}

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewDetail:
		return m.detail.View()
	case ViewPermission:
		return m.permissionView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSettings:
		return m.settingsView.View()
	default:
		return m.dashboard.View()
	}
}

// syncStatus returns a short string describing the refresh and location
// state.
func (m Model) syncStatus() string {
	var failing []string
	running := 0
	for _, s := range m.poller.Statuses() {
		switch s.State {
		case appsync.RefreshRunning:
			running++
		case appsync.RefreshError:
			failing = append(failing, s.Name)
		}
	}

	loc := profile.Summary(m.location)
	switch {
	case m.location.IsLoading:
		return "locating... | " + loc
	case running > 0:
		return fmt.Sprintf("refreshing (%d) | %s", running, loc)
	case len(failing) > 0:
		return fmt.Sprintf("⚠ %s | %s", strings.Join(failing, ", "), loc)
	default:
		return loc
	}
}

func (m Model) statusSummary() string {
	parts := []string{fmt.Sprintf("%d unread", m.unread)}
	for _, s := range m.poller.Statuses() {
		last := "never"
		if !s.LastRefresh.IsZero() {
			last = s.LastRefresh.Format("15:04:05")
		}
		parts = append(parts, fmt.Sprintf("%s %s (%s)", s.Name, s.State, last))
	}
	return strings.Join(parts, " · ")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | j/k scroll | L location"
	case ViewPermission:
		return "←/→ choose | enter confirm"
	default:
		return "q quit | ? help | tab switch | enter open | m mark all read | [ ] page | L location | r refresh"
	}
}
