package permission

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/health-alerts/internal/theme"
)

// DecisionMsg is dispatched when the user answers the dialog. Allow is
// false both for an explicit "no" and for dismissing the dialog.
type DecisionMsg struct {
	Allow bool
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	allow bool
}

// Model is the location permission dialog.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates the dialog model. Call Start to show it.
func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// Start resets and shows the dialog.
func (m *Model) Start() tea.Cmd {
	m.fb.allow = true
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Share your location?").
				Description(
					"Health alerts near you are matched against your position.\n"+
						"Your coordinates are sent to the alert service and saved on\n"+
						"this device. You can stop sharing at any time with L.",
				),
			huh.NewConfirm().
				Title("Allow location access").
				Affirmative("Allow").
				Negative("Not now").
				Value(&m.fb.allow),
		),
	).WithWidth(m.formWidth()).WithShowHelp(false)
	return m.form.Init()
}

// Update handles messages for the dialog.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		allow := m.fb.allow
		m.form = nil
		return m, func() tea.Msg { return DecisionMsg{Allow: allow} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return DecisionMsg{Allow: false} }
	}

	return m, cmd
}

// View renders the dialog.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(theme.DetailPanelStyle.Render(m.form.View()))
}

// SetSize updates the dialog dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	return min(max(m.width-8, 30), 70)
}
