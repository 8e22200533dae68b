package dashboard

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/health-alerts/internal/keys"
	"github.com/nhle/health-alerts/internal/theme"
	"github.com/nhle/health-alerts/internal/ui/nearby"
	"github.com/nhle/health-alerts/internal/ui/notifications"
	"github.com/nhle/health-alerts/internal/ui/profile"
)

// Tab identifies a dashboard tab.
type Tab int

const (
	TabNotifications Tab = iota
	TabNearby
	TabProfile
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabNearby:
		return "Nearby"
	case TabProfile:
		return "Profile"
	default:
		return "Notifications"
	}
}

// tabBarHeight is the tab strip plus its bottom border.
const tabBarHeight = 2

// Model is the tabbed dashboard.
type Model struct {
	Notifications notifications.Model
	Nearby        nearby.Model
	Profile       profile.Model

	keys   *keys.KeyMap
	active Tab
	unread int
	width  int
	height int
}

// New creates the dashboard.
func New(k *keys.KeyMap, n notifications.Model, nb nearby.Model, p profile.Model) Model {
	return Model{
		Notifications: n,
		Nearby:        nb,
		Profile:       p,
		keys:          k,
	}
}

// Init loads the notification page and the profile.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Notifications.Init(), m.Profile.Load())
}

// Active returns the selected tab.
func (m Model) Active() Tab {
	return m.active
}

// SetActive selects a tab.
func (m *Model) SetActive(t Tab) {
	if t >= 0 && t < tabCount {
		m.active = t
	}
}

// SetUnread updates the count shown on the Notifications tab.
func (m *Model) SetUnread(n int) {
	m.unread = n
}

// Update routes data messages to their tab regardless of focus and key
// messages to the active tab.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case notifications.PageLoadedMsg:
		m.Notifications, cmd = m.Notifications.Update(msg)
		return m, cmd
	case nearby.AlertsLoadedMsg:
		m.Nearby, cmd = m.Nearby.Update(msg)
		return m, cmd
	case profile.LoadedMsg:
		m.Profile, cmd = m.Profile.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.NextTab):
			m.active = (m.active + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.PrevTab):
			m.active = (m.active + tabCount - 1) % tabCount
			return m, nil
		}
	}

	switch m.active {
	case TabNotifications:
		m.Notifications, cmd = m.Notifications.Update(msg)
	case TabNearby:
		m.Nearby, cmd = m.Nearby.Update(msg)
	case TabProfile:
		m.Profile, cmd = m.Profile.Update(msg)
	}
	return m, cmd
}

// View renders the tab strip and the active tab.
func (m Model) View() string {
	tabs := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		label := t.String()
		if t == TabNotifications && m.unread > 0 {
			label = fmt.Sprintf("%s (%d)", label, m.unread)
		}
		style := theme.TabStyle
		if t == m.active {
			style = theme.ActiveTabStyle
		}
		tabs = append(tabs, style.Render(label))
	}
	strip := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	var body string
	switch m.active {
	case TabNearby:
		body = m.Nearby.View()
	case TabProfile:
		body = m.Profile.View()
	default:
		body = m.Notifications.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, strip, body)
}

// SetSize updates the dashboard and tab dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	inner := height - tabBarHeight
	m.Notifications.SetSize(width, inner)
	m.Nearby.SetSize(width, inner)
	m.Profile.SetSize(width, inner)
}
