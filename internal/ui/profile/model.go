package profile

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/health-alerts/internal/api"
	"github.com/nhle/health-alerts/internal/model"
	"github.com/nhle/health-alerts/internal/state"
	"github.com/nhle/health-alerts/internal/theme"
)

// UserFetcher loads the signed-in user.
type UserFetcher interface {
	CurrentUser(ctx context.Context) (*model.UserProfile, error)
}

// LoadedMsg carries the signed-in user's profile.
type LoadedMsg struct {
	User *model.UserProfile
	Err  error
}

// Model shows the user's profile and the location sharing status.
type Model struct {
	users    UserFetcher
	user     *model.UserProfile
	err      error
	location state.LocationSnapshot
	width    int
	height   int
}

// New creates the profile view.
func New(users UserFetcher, width, height int) Model {
	return Model{users: users, width: width, height: height}
}

// Load returns a tea.Cmd that fetches the profile.
func (m Model) Load() tea.Cmd {
	users := m.users
	return func() tea.Msg {
		u, err := users.CurrentUser(context.Background())
		return LoadedMsg{User: u, Err: err}
	}
}

// SetLocation updates the displayed location status.
func (m *Model) SetLocation(snap state.LocationSnapshot) {
	m.location = snap
}

// Update handles messages for the profile view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(LoadedMsg); ok {
		m.err = msg.Err
		if msg.Err == nil {
			m.user = msg.User
		}
	}
	return m, nil
}

// View renders the profile panel.
func (m Model) View() string {
	label := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(12)
	value := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(k, v string) string {
		return label.Render(k) + value.Render(v)
	}

	var sections []string
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)

	switch {
	case m.user != nil:
		sections = append(sections,
			titleStyle.Render(m.user.DisplayName()),
			row("Email", m.user.Email),
		)
		if m.user.Phone != "" {
			sections = append(sections, row("Phone", m.user.Phone))
		}
		if m.user.Role != "" {
			sections = append(sections, row("Role", m.user.Role))
		}
	case m.err != nil:
		sections = append(sections, theme.DimmedStyle.Render("Could not load profile: "+api.UserMessage(m.err)))
	default:
		sections = append(sections, theme.DimmedStyle.Render("Loading profile..."))
	}

	sections = append(sections, "", titleStyle.Render("Location"), m.locationLines(row))

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) locationLines(row func(k, v string) string) string {
	snap := m.location

	status := "off"
	switch {
	case snap.IsLoading:
		status = "updating..."
	case snap.LocationAllowed:
		status = "sharing"
	}
	lines := []string{
		row("Status", theme.LocationStyle(snap.LocationAllowed).Render(status)),
		row("Permission", snap.Permission().String()),
	}

	if c, ok := snap.Current(); ok {
		lines = append(lines, row("Position", c.String()))
	} else if snap.LastKnown != nil {
		lines = append(lines, row("Last known", snap.LastKnown.String()))
	}

	hint := "Press L to share your location."
	if snap.LocationAllowed {
		hint = "Press L to stop sharing your location."
	}
	lines = append(lines, "", theme.HelpStyle.Render(hint))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Summary is a one-line location description for the status bar.
func Summary(snap state.LocationSnapshot) string {
	if !snap.LocationAllowed {
		return "location off"
	}
	if c, ok := snap.Current(); ok {
		return fmt.Sprintf("📍 %s", c.String())
	}
	return "📍 on"
}
