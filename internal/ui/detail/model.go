package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/health-alerts/internal/keys"
	"github.com/nhle/health-alerts/internal/model"
	"github.com/nhle/health-alerts/internal/theme"
	"github.com/nhle/health-alerts/internal/ui"
)

// BackMsg signals the parent to navigate back to the dashboard.
type BackMsg struct{}

// Model is the notification detail view component.
type Model struct {
	notification *model.Notification
	viewport     viewport.Model
	keys         *keys.KeyMap
	width        int
	height       int
	now          func() time.Time
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
		now:      time.Now,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg {
			return BackMsg{}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.notification == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No notification selected")
	}

	return m.viewport.View()
}

// Show displays n. Opening a notification counts as reading it, so the
// view renders it as read.
func (m *Model) Show(n model.Notification) {
	if !n.Read {
		n.Read = true
		now := m.now()
		n.ReadAt = &now
	}
	m.notification = &n
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Current returns the displayed notification.
func (m Model) Current() (model.Notification, bool) {
	if m.notification == nil {
		return model.Notification{}, false
	}
	return *m.notification, true
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	n := m.notification
	if n == nil {
		return ""
	}

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(n.Title))

	severity := theme.SeverityStyle(n.Severity).Render(ui.Severity(n.Severity))
	sections = append(sections, severity, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(11)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	meta := func(k, v string) {
		sections = append(sections, metaStyle.Render(k)+valStyle.Render(v))
	}

	if !n.CreatedAt.IsZero() {
		meta("Received:", fmt.Sprintf(
			"%s (%s)",
			n.CreatedAt.Local().Format("2006-01-02 15:04"),
			ui.RelativeTime(n.CreatedAt, m.now()),
		))
	}
	if d := ui.Distance(n.Distance); d != "" {
		meta("Distance:", d)
	}
	if n.ReadAt != nil {
		meta("Read:", n.ReadAt.Local().Format("2006-01-02 15:04"))
	}
	if n.AlertID != "" {
		meta("Alert:", n.AlertID)
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	body := n.Description
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	}
	sections = append(sections, lipgloss.NewStyle().Width(max(m.width-4, 20)).Render(body))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.notification != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
