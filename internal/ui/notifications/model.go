package notifications

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/health-alerts/internal/api"
	"github.com/nhle/health-alerts/internal/keys"
	"github.com/nhle/health-alerts/internal/model"
	"github.com/nhle/health-alerts/internal/theme"
)

// PageSize is the number of notifications requested per page.
const PageSize = 20

// Lister fetches pages of notifications.
type Lister interface {
	ListNotifications(ctx context.Context, opts api.ListOptions) (*api.NotificationPage, error)
}

// PageLoadedMsg is sent when a page of notifications has been fetched.
type PageLoadedMsg struct {
	Page *api.NotificationPage
	Err  error
}

// SelectedNotificationMsg is sent when the user opens a notification.
type SelectedNotificationMsg struct {
	Notification model.Notification
}

// Model is the paged notification listing. It only holds a display copy
// of the current page; the unread count lives in the notification store.
type Model struct {
	list    list.Model
	lister  Lister
	keys    *keys.KeyMap
	page    int
	last    bool
	total   int
	loading bool
	err     error
	width   int
	height  int
}

// New creates a new notification list model.
func New(l Lister, k *keys.KeyMap, width, height int) Model {
	lst := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	lst.Title = "Notifications"
	lst.SetShowStatusBar(true)
	lst.SetShowHelp(false)
	lst.SetFilteringEnabled(false)
	lst.Styles.Title = theme.HeaderStyle

	return Model{
		list:   lst,
		lister: l,
		keys:   k,
		last:   true,
		width:  width,
		height: height,
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return m.LoadPage(0)
}

// Update handles messages for the notification list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PageLoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err != nil || msg.Page == nil {
			return m, nil
		}
		m.page = msg.Page.Page
		m.last = msg.Page.Last
		m.total = msg.Page.TotalElements
		m.list.Title = fmt.Sprintf("Notifications · page %d/%d", m.page+1, max(msg.Page.TotalPages, 1))

		items := make([]list.Item, len(msg.Page.Content))
		for i, n := range msg.Page.Content {
			items[i] = Item{Notification: n}
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Select):
			n, ok := m.Selected()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return SelectedNotificationMsg{Notification: n}
			}

		case key.Matches(msg, m.keys.NextPage):
			if m.last || m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.LoadPage(m.page + 1)

		case key.Matches(msg, m.keys.PrevPage):
			if m.page == 0 || m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.LoadPage(m.page - 1)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Selected returns the highlighted notification.
func (m Model) Selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.Notification{}, false
	}
	return it.Notification, true
}

// MarkRead flips the display copy of one notification to read.
func (m *Model) MarkRead(id string) {
	items := m.list.Items()
	for i, li := range items {
		it, ok := li.(Item)
		if !ok || it.Notification.ID != id {
			continue
		}
		it.Notification.Read = true
		m.list.SetItem(i, it)
		return
	}
}

// MarkAllRead flips every displayed notification to read.
func (m *Model) MarkAllRead() {
	for i, li := range m.list.Items() {
		if it, ok := li.(Item); ok && !it.Notification.Read {
			it.Notification.Read = true
			m.list.SetItem(i, it)
		}
	}
}

// Reload refetches the current page.
func (m Model) Reload() tea.Cmd {
	return m.LoadPage(m.page)
}

// LoadPage returns a tea.Cmd that fetches the given page, newest first.
func (m Model) LoadPage(page int) tea.Cmd {
	l := m.lister
	return func() tea.Msg {
		p, err := l.ListNotifications(context.Background(), api.ListOptions{
			Page:      page,
			Size:      PageSize,
			SortBy:    "createdAt",
			Direction: api.DirectionDesc,
		})
		return PageLoadedMsg{Page: p, Err: err}
	}
}

// View renders the notification list.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.err != nil && len(m.list.Items()) == 0 {
		return style.Render("Could not load notifications.\n" + api.UserMessage(m.err))
	}
	if len(m.list.Items()) == 0 {
		return style.Render("No notifications yet.")
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
