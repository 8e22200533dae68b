package notifications

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/health-alerts/internal/model"
	"github.com/nhle/health-alerts/internal/theme"
	"github.com/nhle/health-alerts/internal/ui"
)

// Item wraps a model.Notification so it can be used in a bubbles/list.
type Item struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Notification.Title }

// Title returns the notification title.
func (i Item) Title() string { return i.Notification.Title }

// Description returns the notification body.
func (i Item) Description() string { return i.Notification.Description }

// ItemDelegate implements list.ItemDelegate for notification rows.
type ItemDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification line: an unread marker, the
// severity, the title, the distance and the age.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.Notification

	marker := lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("●")
	if n.Read {
		marker = " "
	}

	severity := theme.SeverityStyle(n.Severity).Render(ui.Severity(n.Severity))

	now := time.Now
	if d.now != nil {
		now = d.now
	}
	meta := theme.DimmedStyle.Render(joinNonEmpty(
		ui.Distance(n.Distance),
		ui.RelativeTime(n.CreatedAt, now()),
	))

	line := fmt.Sprintf("%s %s %s  %s", marker, severity, n.Title, meta)
	if n.Read {
		line = theme.DimmedStyle.Render(line)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " · "
		}
		out += p
	}
	return out
}
