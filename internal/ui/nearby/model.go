package nearby

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/health-alerts/internal/api"
	"github.com/nhle/health-alerts/internal/model"
	"github.com/nhle/health-alerts/internal/theme"
	"github.com/nhle/health-alerts/internal/ui"
)

// AlertsLoadedMsg carries the alerts around the user's position.
type AlertsLoadedMsg struct {
	At     model.Coordinates
	Alerts []model.Alert
	Err    error
}

// Model shows active alerts near the user.
type Model struct {
	table   table.Model
	alerts  []model.Alert
	at      *model.Coordinates
	err     error
	updated time.Time
	located bool
	width   int
	height  int
	now     func() time.Time
}

// New creates the nearby alerts view.
func New(width, height int) Model {
	t := table.New(
		table.WithColumns(columns(width)),
		table.WithFocused(true),
		table.WithHeight(max(height-4, 1)),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(theme.ColorWhite).
		Background(theme.ColorBlue)
	t.SetStyles(styles)

	return Model{table: t, width: width, height: height, now: time.Now}
}

func columns(width int) []table.Column {
	title := max(width-46, 12)
	return []table.Column{
		{Title: "Severity", Width: 10},
		{Title: "Alert", Width: title},
		{Title: "Distance", Width: 10},
		{Title: "Expires", Width: 16},
	}
}

// SetLocated records whether a position is available at all.
func (m *Model) SetLocated(ok bool) {
	m.located = ok
}

// Update handles messages for the nearby view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(AlertsLoadedMsg); ok {
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		at := msg.At
		m.at = &at
		m.located = true
		m.updated = m.now()
		m.alerts = activeAlerts(msg.Alerts, m.updated)
		m.table.SetRows(rows(m.alerts))
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// activeAlerts drops expired alerts.
func activeAlerts(alerts []model.Alert, now time.Time) []model.Alert {
	out := make([]model.Alert, 0, len(alerts))
	for _, a := range alerts {
		if !a.IsExpired(now) {
			out = append(out, a)
		}
	}
	return out
}

func rows(alerts []model.Alert) []table.Row {
	out := make([]table.Row, len(alerts))
	for i, a := range alerts {
		expires := "-"
		if a.ExpiresAt != nil {
			expires = a.ExpiresAt.Local().Format("Jan 02 15:04")
		}
		out[i] = table.Row{ui.Severity(a.Severity), a.Title, ui.Distance(a.Distance), expires}
	}
	return out
}

// Alerts returns the displayed alerts.
func (m Model) Alerts() []model.Alert {
	return m.alerts
}

// View renders the nearby alerts table.
func (m Model) View() string {
	center := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case !m.located:
		return center.Render("Location is off.\nPress L or run ': enable location' to see alerts near you.")
	case m.err != nil && m.at == nil:
		return center.Render("Could not load nearby alerts.\n" + api.UserMessage(m.err))
	case m.at == nil:
		return center.Render("Looking for alerts near you...")
	}

	caption := theme.DimmedStyle.Render(fmt.Sprintf(
		"Around %s · updated %s",
		m.at.String(),
		ui.RelativeTime(m.updated, m.now()),
	))
	if len(m.alerts) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, caption, "",
			lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("No active alerts near you."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, caption, m.table.View())
}

// SetSize updates the table dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width))
	m.table.SetHeight(max(height-4, 1))
	m.table.SetWidth(width)
}
