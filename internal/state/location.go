package state

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/multierr"

	"github.com/nhle/health-alerts/internal/api"
	"github.com/nhle/health-alerts/internal/geo"
	"github.com/nhle/health-alerts/internal/logging"
	"github.com/nhle/health-alerts/internal/model"
	"github.com/nhle/health-alerts/internal/store"
)

// LocationAPI is the subset of the backend used by LocationState.
type LocationAPI interface {
	UpdateLocation(ctx context.Context, update api.LocationUpdate) error
	UpdateProfileLocation(ctx context.Context, at model.Coordinates) error
}

// LocationSnapshot is an immutable copy of LocationState.
type LocationSnapshot struct {
	// Latitude and Longitude are set only after a fix was acquired in
	// this process while location is allowed.
	Latitude  *float64
	Longitude *float64

	LocationAllowed       bool
	IsLoading             bool
	PermissionDialogShown bool

	// LastKnown is the last fix mirrored to durable storage, possibly
	// from a previous run.
	LastKnown *model.Coordinates
}

// Current returns the coordinates acquired in this process, if any.
func (s LocationSnapshot) Current() (model.Coordinates, bool) {
	if s.Latitude == nil || s.Longitude == nil {
		return model.Coordinates{}, false
	}
	return model.Coordinates{Latitude: *s.Latitude, Longitude: *s.Longitude}, true
}

// Best returns the current fix, falling back to the last known one.
func (s LocationSnapshot) Best() (model.Coordinates, bool) {
	if c, ok := s.Current(); ok {
		return c, true
	}
	if s.LastKnown != nil {
		return *s.LastKnown, true
	}
	return model.Coordinates{}, false
}

// Permission maps the snapshot onto the tri-state permission.
func (s LocationSnapshot) Permission() model.LocationPermission {
	switch {
	case s.LocationAllowed:
		return model.PermissionEnabled
	case s.PermissionDialogShown:
		return model.PermissionDisabled
	default:
		return model.PermissionUnknown
	}
}

// LocationDeps are the collaborators of LocationState.
type LocationDeps struct {
	API      LocationAPI
	Locator  geo.Locator
	Store    store.Store
	Notifier Notifier
	Logger   *logging.Logger

	// Options for each acquisition; zero value means geo.DefaultOptions.
	Options geo.Options
}

// LocationState owns geolocation acquisition and is the only writer of
// the locationEnabled, userLat and userLng durable keys. Other
// components observe it through Subscribe.
type LocationState struct {
	api      LocationAPI
	locator  geo.Locator
	store    store.Store
	notifier Notifier
	log      *logging.Logger
	opts     geo.Options
	changes  *Broker[LocationSnapshot]

	mu          sync.Mutex
	lat, lng    *float64
	allowed     bool
	loading     bool
	dialogShown bool
	lastKnown   *model.Coordinates
}

// NewLocationState builds the store and hydrates LocationAllowed and the
// last known coordinates from durable storage. No network I/O happens
// here, so a restart never silently resets prior consent.
func NewLocationState(ctx context.Context, deps LocationDeps) *LocationState {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Notifier == nil {
		deps.Notifier = LogNotifier{Log: deps.Logger}
	}
	if deps.Options == (geo.Options{}) {
		deps.Options = geo.DefaultOptions()
	}

	s := &LocationState{
		api:      deps.API,
		locator:  deps.Locator,
		store:    deps.Store,
		notifier: deps.Notifier,
		log:      deps.Logger.With("subsystem", "location"),
		opts:     deps.Options,
		changes:  NewBroker[LocationSnapshot](),
	}
	s.hydrate(ctx)
	return s
}

func (s *LocationState) hydrate(ctx context.Context) {
	enabled, err := s.store.Get(ctx, model.KeyLocationEnabled)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.log.Warn(ctx, "reading location flag", err)
	}
	s.allowed = enabled == "true"

	lat, latErr := s.store.Get(ctx, model.KeyUserLat)
	lng, lngErr := s.store.Get(ctx, model.KeyUserLng)
	if latErr != nil || lngErr != nil {
		return
	}
	la, err1 := model.ParseCoordinate(lat)
	lo, err2 := model.ParseCoordinate(lng)
	if err := multierr.Combine(err1, err2); err != nil {
		s.log.Warn(ctx, "ignoring malformed last known coordinates", err)
		return
	}
	s.lastKnown = &model.Coordinates{Latitude: la, Longitude: lo}
}

// Snapshot returns a copy of the current state.
func (s *LocationState) Snapshot() LocationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *LocationState) snapshotLocked() LocationSnapshot {
	snap := LocationSnapshot{
		LocationAllowed:       s.allowed,
		IsLoading:             s.loading,
		PermissionDialogShown: s.dialogShown,
	}
	if s.lat != nil && s.lng != nil {
		lat, lng := *s.lat, *s.lng
		snap.Latitude, snap.Longitude = &lat, &lng
	}
	if s.lastKnown != nil {
		c := *s.lastKnown
		snap.LastKnown = &c
	}
	return snap
}

// Subscribe registers fn for every state change.
func (s *LocationState) Subscribe(fn func(LocationSnapshot)) (unsubscribe func()) {
	return s.changes.Subscribe(fn)
}

// update applies fn under the lock and publishes the result.
func (s *LocationState) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.changes.Publish(snap)
}

// setLoading flips the single in-flight flag. Overlapping calls are not
// queued; whichever finishes first clears the flag.
func (s *LocationState) setLoading(v bool) {
	s.update(func() { s.loading = v })
}

// MarkPermissionDialogShown records that the user has seen the consent
// dialog in this session.
func (s *LocationState) MarkPermissionDialogShown() {
	s.update(func() { s.dialogShown = true })
}

// UpdateLocation acquires a fresh fix, mirrors it to durable storage and
// pushes it to the location service and then the user profile. Location
// becomes allowed only when both backend calls succeed. It never returns
// an error; failures are logged, toasted and reported as false.
func (s *LocationState) UpdateLocation(ctx context.Context) bool {
	s.setLoading(true)
	defer s.setLoading(false)

	pos, err := s.locator.Locate(ctx, s.opts)
	if err != nil {
		var geoErr *geo.Error
		msg := "Could not determine your location."
		if errors.As(err, &geoErr) {
			msg = geoErr.UserMessage()
		}
		s.fail(ctx, "acquiring position", msg, err)
		return false
	}

	coords := pos.Coordinates
	s.persistCoordinates(ctx, coords)

	lat, lng := coords.Latitude, coords.Longitude
	err = s.api.UpdateLocation(ctx, api.LocationUpdate{
		Latitude:        &lat,
		Longitude:       &lng,
		LocationAllowed: true,
	})
	if err != nil {
		s.fail(ctx, "pushing location", api.UserMessage(err), err)
		return false
	}

	if err := s.api.UpdateProfileLocation(ctx, coords); err != nil {
		s.fail(ctx, "mirroring location to profile", api.UserMessage(err), err)
		return false
	}

	if err := s.store.Set(ctx, model.KeyLocationEnabled, model.FormatBool(true)); err != nil {
		s.log.Warn(ctx, "persisting location flag", err)
	}

	s.update(func() {
		s.lat, s.lng = &lat, &lng
		s.allowed = true
		s.lastKnown = &coords
	})

	s.log.Info(s.log.WithField(ctx, "coordinates", coords.String()), "location services enabled")
	s.notifier.Notify(NewToast(ToastSuccess, "Location services enabled."))
	return true
}

// fail is the common failure path of UpdateLocation: location becomes
// disallowed in memory and in durable storage.
func (s *LocationState) fail(ctx context.Context, op, userMsg string, err error) {
	s.log.Warn(s.log.WithField(ctx, "op", op), "location update failed", err)

	if setErr := s.store.Set(ctx, model.KeyLocationEnabled, model.FormatBool(false)); setErr != nil {
		s.log.Warn(ctx, "persisting location flag", setErr)
	}

	s.update(func() {
		s.allowed = false
		s.lat, s.lng = nil, nil
	})
	s.notifier.Notify(NewToast(ToastError, userMsg))
}

// DisableLocation tells the backend location is no longer shared and,
// on success, purges the stored coordinates.
func (s *LocationState) DisableLocation(ctx context.Context) bool {
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.api.UpdateLocation(ctx, api.LocationUpdate{LocationAllowed: false}); err != nil {
		s.log.Warn(ctx, "disabling location failed", err)
		s.notifier.Notify(NewToast(ToastError, api.UserMessage(err)))
		return false
	}

	err := multierr.Combine(
		s.store.Delete(ctx, model.KeyUserLat, model.KeyUserLng),
		s.store.Set(ctx, model.KeyLocationEnabled, model.FormatBool(false)),
	)
	if err != nil {
		s.log.Warn(ctx, "purging stored location", err)
	}

	s.update(func() {
		s.allowed = false
		s.lat, s.lng = nil, nil
		s.lastKnown = nil
	})

	s.log.Info(ctx, "location services disabled")
	s.notifier.Notify(NewToast(ToastInfo, "Location services disabled."))
	return true
}

// RefreshPosition takes a one-shot fix without talking to the backend.
// It does nothing unless location is allowed, and stays silent when the
// permission is denied.
func (s *LocationState) RefreshPosition(ctx context.Context) bool {
	if !s.Snapshot().LocationAllowed {
		return false
	}

	pos, err := s.locator.Locate(ctx, s.opts)
	if err != nil {
		if geo.CodeOf(err) == geo.PermissionDenied {
			s.log.Debug(ctx, "position refresh skipped: permission denied")
			return false
		}
		s.log.Warn(ctx, "position refresh failed", err)
		return false
	}

	coords := pos.Coordinates
	s.persistCoordinates(ctx, coords)

	lat, lng := coords.Latitude, coords.Longitude
	s.update(func() {
		s.lat, s.lng = &lat, &lng
		s.lastKnown = &coords
	})
	return true
}

func (s *LocationState) persistCoordinates(ctx context.Context, c model.Coordinates) {
	err := multierr.Combine(
		s.store.Set(ctx, model.KeyUserLat, model.FormatCoordinate(c.Latitude)),
		s.store.Set(ctx, model.KeyUserLng, model.FormatCoordinate(c.Longitude)),
	)
	if err != nil {
		s.log.Warn(ctx, "persisting coordinates", err)
	}
}
