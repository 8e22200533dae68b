package state

import (
	"context"

	"github.com/nhle/health-alerts/internal/geo"
	"github.com/nhle/health-alerts/internal/logging"
	"github.com/nhle/health-alerts/internal/store"
)

// Backend is everything the stores need from the alert service.
// *api.Client satisfies it.
type Backend interface {
	NotificationAPI
	LocationAPI
}

// Deps wires the stores together.
type Deps struct {
	Backend    Backend
	Locator    geo.Locator
	Store      store.Store
	Notifier   Notifier
	Logger     *logging.Logger
	GeoOptions geo.Options
}

// Services is the application's pair of state stores. Build one at
// startup and pass it down; tests build as many as they like.
type Services struct {
	Location      *LocationState
	Notifications *NotificationState
}

// New constructs both stores. LocationState is built first so that the
// notification store starts from the hydrated location status.
func New(ctx context.Context, deps Deps) *Services {
	loc := NewLocationState(ctx, LocationDeps{
		API:      deps.Backend,
		Locator:  deps.Locator,
		Store:    deps.Store,
		Notifier: deps.Notifier,
		Logger:   deps.Logger,
		Options:  deps.GeoOptions,
	})

	notifications := NewNotificationState(NotificationDeps{
		API:      deps.Backend,
		Location: loc,
		Notifier: deps.Notifier,
		Logger:   deps.Logger,
	})

	return &Services{Location: loc, Notifications: notifications}
}

// Close detaches the stores from each other.
func (s *Services) Close() {
	s.Notifications.Close()
}
