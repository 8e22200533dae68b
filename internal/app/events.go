package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/health-alerts/internal/model"
	"github.com/nhle/health-alerts/internal/state"
	appsync "github.com/nhle/health-alerts/internal/sync"
	"github.com/nhle/health-alerts/internal/ui/nearby"
)

// unreadChangedMsg signals that the notification store's count changed.
// The handler reads the current value, so coalesced signals lose nothing.
type unreadChangedMsg struct{}

// locationChangedMsg signals that the location store changed.
type locationChangedMsg struct{}

// toastMsg carries a toast from the stores to the status bar.
type toastMsg struct {
	toast state.Toast
}

// toastExpiredMsg clears the status bar toast with the given ID.
type toastExpiredMsg struct {
	id string
}

// markReadDoneMsg reports the result of marking one notification read.
type markReadDoneMsg struct {
	id string
	ok bool
}

// markAllDoneMsg reports the result of marking everything read.
type markAllDoneMsg struct {
	ok bool
}

// locationDoneMsg reports the result of enabling or disabling location.
type locationDoneMsg struct {
	enabled bool
	ok      bool
}

const toastTTL = 4 * time.Second

// bridge forwards store changes into Bubble Tea. Each channel holds at
// most one pending signal.
type bridge struct {
	unread   chan struct{}
	location chan struct{}
	nearby   chan nearby.AlertsLoadedMsg

	unsubscribe []func()
}

func newBridge(svc *state.Services) *bridge {
	b := &bridge{
		unread:   make(chan struct{}, 1),
		location: make(chan struct{}, 1),
		nearby:   make(chan nearby.AlertsLoadedMsg, 1),
	}
	b.unsubscribe = append(b.unsubscribe,
		svc.Notifications.Subscribe(func(int) { signal(b.unread) }),
		svc.Location.Subscribe(func(state.LocationSnapshot) { signal(b.location) }),
	)
	return b
}

func (b *bridge) close() {
	for _, fn := range b.unsubscribe {
		fn()
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// publishNearby replaces any undelivered result with msg.
func (b *bridge) publishNearby(msg nearby.AlertsLoadedMsg) {
	for {
		select {
		case b.nearby <- msg:
			return
		default:
		}
		select {
		case <-b.nearby:
		default:
		}
	}
}

func (b *bridge) waitUnread() tea.Cmd {
	return func() tea.Msg {
		<-b.unread
		return unreadChangedMsg{}
	}
}

func (b *bridge) waitLocation() tea.Cmd {
	return func() tea.Msg {
		<-b.location
		return locationChangedMsg{}
	}
}

func (b *bridge) waitNearby() tea.Cmd {
	return func() tea.Msg {
		return <-b.nearby
	}
}

func waitToast(q *state.ToastQueue) tea.Cmd {
	return func() tea.Msg {
		return toastMsg{toast: <-q.C()}
	}
}

func expireToast(id string) tea.Cmd {
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// NearbyFetcher loads alerts around a point.
type NearbyFetcher interface {
	NearbyAlerts(ctx context.Context, at model.Coordinates) ([]model.Alert, error)
}

// nearbySurface refreshes alerts around the best known position. It is a
// no-op while location sharing is off.
func nearbySurface(interval time.Duration, loc *state.LocationState, f NearbyFetcher, b *bridge) appsync.Surface {
	return appsync.Surface{
		Name:     appsync.SurfaceNearby,
		Interval: interval,
		Refresh: func(ctx context.Context) error {
			snap := loc.Snapshot()
			at, ok := snap.Best()
			if !snap.LocationAllowed || !ok {
				return nil
			}
			alerts, err := f.NearbyAlerts(ctx, at)
			b.publishNearby(nearby.AlertsLoadedMsg{At: at, Alerts: alerts, Err: err})
			return err
		},
	}
}
