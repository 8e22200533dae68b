package state

import (
	"context"
	"sync"

	"github.com/nhle/health-alerts/internal/api"
	"github.com/nhle/health-alerts/internal/logging"
	"github.com/nhle/health-alerts/internal/model"
)

// NotificationAPI is the subset of the backend used by NotificationState.
type NotificationAPI interface {
	UnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// LocationController is what NotificationState needs from the location
// authority. *LocationState implements it.
type LocationController interface {
	UpdateLocation(ctx context.Context) bool
	DisableLocation(ctx context.Context) bool
	RefreshPosition(ctx context.Context) bool
	Snapshot() LocationSnapshot
	Subscribe(fn func(LocationSnapshot)) (unsubscribe func())
}

// LocationStatus is NotificationState's read-only mirror of the
// location authority.
type LocationStatus struct {
	Enabled     bool
	Loading     bool
	Coordinates *model.Coordinates
}

func statusFrom(snap LocationSnapshot) LocationStatus {
	st := LocationStatus{Enabled: snap.LocationAllowed, Loading: snap.IsLoading}
	if c, ok := snap.Current(); ok {
		st.Coordinates = &c
	}
	return st
}

// NotificationDeps are the collaborators of NotificationState.
type NotificationDeps struct {
	API      NotificationAPI
	Location LocationController
	Notifier Notifier
	Logger   *logging.Logger
}

// NotificationState is the single source of truth for the unread badge
// shown by every UI surface.
//
// Every fetch and every local mutation takes a sequence number. A result
// is applied only when its number is newer than the one that produced
// the cached value, so an out-of-order completion never overwrites a
// fresher count.
type NotificationState struct {
	api      NotificationAPI
	location LocationController
	notifier Notifier
	log      *logging.Logger
	changes  *Broker[int]

	mu      sync.RWMutex
	unread  int
	issued  uint64
	applied uint64
	status  LocationStatus

	unsubscribe func()
}

// NewNotificationState builds the store and starts mirroring the
// location authority.
func NewNotificationState(deps NotificationDeps) *NotificationState {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Notifier == nil {
		deps.Notifier = LogNotifier{Log: deps.Logger}
	}

	s := &NotificationState{
		api:      deps.API,
		location: deps.Location,
		notifier: deps.Notifier,
		log:      deps.Logger.With("subsystem", "notifications"),
		changes:  NewBroker[int](),
	}

	if s.location != nil {
		s.status = statusFrom(s.location.Snapshot())
		s.unsubscribe = s.location.Subscribe(func(snap LocationSnapshot) {
			s.mu.Lock()
			s.status = statusFrom(snap)
			s.mu.Unlock()
		})
	}

	return s
}

// Close stops mirroring the location authority.
func (s *NotificationState) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Subscribe registers fn for unread count changes.
func (s *NotificationState) Subscribe(fn func(count int)) (unsubscribe func()) {
	return s.changes.Subscribe(fn)
}

func (s *NotificationState) nextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// apply stores count if seq is newer than the cached value's sequence.
func (s *NotificationState) apply(ctx context.Context, seq uint64, count int) {
	s.mu.Lock()
	if seq <= s.applied {
		applied := s.applied
		s.mu.Unlock()
		s.log.Debug(
			s.log.WithFields(ctx, map[string]any{"seq": seq, "applied": applied}),
			"discarding stale unread count",
		)
		return
	}
	changed := s.unread != count
	s.unread = count
	s.applied = seq
	s.mu.Unlock()

	if changed {
		s.changes.Publish(count)
	}
}

// FetchUnreadCount replaces the cached count with the number of unread
// notifications the backend returns. On failure the cache is left
// untouched.
func (s *NotificationState) FetchUnreadCount(ctx context.Context) {
	seq := s.nextSeq()

	items, err := s.api.UnreadNotifications(ctx)
	if err != nil {
		s.log.Warn(s.log.WithField(ctx, "seq", seq), "fetching unread count failed", err)
		s.notifier.Notify(NewToast(ToastError, api.UserMessage(err)))
		return
	}

	s.apply(ctx, seq, len(items))
}

// UnreadCount returns the cached count. It never touches the network.
func (s *NotificationState) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// MarkAllAsRead marks every notification read and optimistically zeroes
// the count without refetching.
func (s *NotificationState) MarkAllAsRead(ctx context.Context) bool {
	if err := s.api.MarkAllNotificationsRead(ctx); err != nil {
		s.log.Warn(ctx, "marking all notifications read failed", err)
		s.notifier.Notify(NewToast(ToastError, api.UserMessage(err)))
		return false
	}

	s.apply(ctx, s.nextSeq(), 0)
	s.notifier.Notify(NewToast(ToastSuccess, "All notifications marked as read."))
	return true
}

// MarkAsRead marks one notification read and then refetches the count
// instead of decrementing it locally.
func (s *NotificationState) MarkAsRead(ctx context.Context, id string) bool {
	ctx = s.log.WithField(ctx, "notification_id", id)
	if err := s.api.MarkNotificationRead(ctx, id); err != nil {
		s.log.Warn(ctx, "marking notification read failed", err)
		s.notifier.Notify(NewToast(ToastError, api.UserMessage(err)))
		return false
	}

	s.FetchUnreadCount(ctx)
	return true
}

// EnableLocationServices asks the location authority for a fresh fix
// and to share it with the backend.
func (s *NotificationState) EnableLocationServices(ctx context.Context) bool {
	if s.location == nil {
		return false
	}
	return s.location.UpdateLocation(ctx)
}

// DisableLocationServices asks the location authority to stop sharing.
func (s *NotificationState) DisableLocationServices(ctx context.Context) bool {
	if s.location == nil {
		return false
	}
	return s.location.DisableLocation(ctx)
}

// CheckLocationStatus runs at startup. When location was enabled in a
// previous session it opportunistically takes one fix; a denied
// permission is silently ignored.
func (s *NotificationState) CheckLocationStatus(ctx context.Context) {
	if s.location == nil || !s.location.Snapshot().LocationAllowed {
		return
	}
	s.location.RefreshPosition(ctx)
}

// LocationStatus returns the mirrored location status.
func (s *NotificationState) LocationStatus() LocationStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
