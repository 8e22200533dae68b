package settings

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/health-alerts/internal/model"
	"github.com/nhle/health-alerts/internal/theme"
)

// SavedMsg is dispatched after the configuration was written. Changes
// take effect on the next start.
type SavedMsg struct {
	Config *model.AppConfig
	Err    error
}

// CancelMsg is dispatched when the user leaves without saving.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	baseURL   string
	header    string
	dashboard string
	nearby    string
	provider  string
	latitude  string
	longitude string
	logLevel  string
}

// Model edits and saves the application configuration.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	path   string
	base   model.AppConfig
	width  int
	height int
}

// New creates the settings view for the config file at path.
func New(path string, cfg *model.AppConfig, width, height int) Model {
	m := Model{fb: &formBindings{}, path: path, width: width, height: height}
	if cfg != nil {
		m.base = *cfg
	}
	return m
}

// Start fills the form from the current configuration and shows it.
func (m *Model) Start() tea.Cmd {
	c := m.base
	*m.fb = formBindings{
		baseURL:   c.API.BaseURL,
		header:    strconv.Itoa(c.Polling.HeaderIntervalSec),
		dashboard: strconv.Itoa(c.Polling.DashboardIntervalSec),
		nearby:    strconv.Itoa(c.Polling.NearbyIntervalSec),
		provider:  c.Location.Provider,
		latitude:  model.FormatCoordinate(c.Location.StaticLatitude),
		longitude: model.FormatCoordinate(c.Location.StaticLongitude),
		logLevel:  c.Log.Level,
	}
	m.form = m.buildForm()
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Alert service URL").
				Placeholder("https://alerts.example.org").
				Value(&m.fb.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Header refresh (seconds)").
				Value(&m.fb.header).
				Validate(validateSeconds),
			huh.NewInput().
				Title("Dashboard refresh (seconds)").
				Value(&m.fb.dashboard).
				Validate(validateSeconds),
			huh.NewInput().
				Title("Nearby alerts refresh (seconds)").
				Value(&m.fb.nearby).
				Validate(validateSeconds),
		).Title("Service"),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Location provider").
				Options(
					huh.NewOption("IP geolocation", model.LocationProviderIP),
					huh.NewOption("Fixed coordinates", model.LocationProviderStatic),
				).
				Value(&m.fb.provider),
			huh.NewInput().
				Title("Fixed latitude").
				Value(&m.fb.latitude).
				Validate(validateCoordinate),
			huh.NewInput().
				Title("Fixed longitude").
				Value(&m.fb.longitude).
				Validate(validateCoordinate),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&m.fb.logLevel),
		).Title("Location & logging"),
	).WithWidth(m.formWidth())
}

// Update handles messages for the settings form.
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
		m.form = nil
		return m, m.save()
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// Apply builds a configuration from the form values on top of the
// current one and validates it.
func (m Model) Apply() (*model.AppConfig, error) {
	cfg := m.base
	fb := m.fb

	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(fb.baseURL), "/")
	cfg.Polling.HeaderIntervalSec, _ = strconv.Atoi(strings.TrimSpace(fb.header))
	cfg.Polling.DashboardIntervalSec, _ = strconv.Atoi(strings.TrimSpace(fb.dashboard))
	cfg.Polling.NearbyIntervalSec, _ = strconv.Atoi(strings.TrimSpace(fb.nearby))
	cfg.Location.Provider = fb.provider
	cfg.Location.StaticLatitude, _ = model.ParseCoordinate(strings.TrimSpace(fb.latitude))
	cfg.Location.StaticLongitude, _ = model.ParseCoordinate(strings.TrimSpace(fb.longitude))
	cfg.Log.Level = fb.logLevel

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (m Model) save() tea.Cmd {
	path := m.path
	cfg, err := m.Apply()
	return func() tea.Msg {
		if err != nil {
			return SavedMsg{Err: err}
		}
		if err := model.SaveConfig(path, cfg); err != nil {
			return SavedMsg{Err: err}
		}
		return SavedMsg{Config: cfg}
	}
}

// SetBase replaces the configuration the form starts from.
func (m *Model) SetBase(cfg *model.AppConfig) {
	if cfg != nil {
		m.base = *cfg
	}
}

// View renders the settings form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Settings") + "\n" +
		theme.DimmedStyle.Render(m.path) + "\n\n" +
		m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(content)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

// --- Validators ---

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}

func validateSeconds(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive number of seconds")
	}
	return nil
}

func validateCoordinate(s string) error {
	if _, err := model.ParseCoordinate(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("must be a decimal number")
	}
	return nil
}
