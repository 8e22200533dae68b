package state

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/health-alerts/internal/api"
	"github.com/nhle/health-alerts/internal/model"
	"github.com/nhle/health-alerts/tests/testutil"
)

func newNotificationState(t *testing.T, backend *fakeBackend, loc LocationController) (*NotificationState, *toastRecorder) {
	t.Helper()
	toasts := &toastRecorder{}
	s := NewNotificationState(NotificationDeps{API: backend, Location: loc, Notifier: toasts})
	t.Cleanup(s.Close)
	return s, toasts
}

func TestFetchUnreadCountOverwrites(t *testing.T) {
	ctx := context.Background()
	count := 7
	backend := &fakeBackend{
		unreadFn: func(context.Context) ([]model.Notification, error) { return unread(count), nil },
	}
	s, _ := newNotificationState(t, backend, nil)

	s.FetchUnreadCount(ctx)
	require.Equal(t, 7, s.UnreadCount())

	count = 3
	s.FetchUnreadCount(ctx)
	require.Equal(t, 3, s.UnreadCount())
}

func TestFetchUnreadCountFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	fail := false
	backend := &fakeBackend{
		unreadFn: func(context.Context) ([]model.Notification, error) {
			if fail {
				return nil, &api.StatusError{Method: "GET", Path: "/x", StatusCode: 500}
			}
			return unread(2), nil
		},
	}
	s, toasts := newNotificationState(t, backend, nil)

	s.FetchUnreadCount(ctx)
	fail = true
	s.FetchUnreadCount(ctx)

	require.Equal(t, 2, s.UnreadCount())
	require.Equal(t, ToastError, toasts.last().Level)
}

func TestUnreadCountDoesNotHitNetwork(t *testing.T) {
	backend := &fakeBackend{}
	s, _ := newNotificationState(t, backend, nil)

	require.Zero(t, s.UnreadCount())
	require.Zero(t, backend.unreadCalls)
}

func TestMarkAllAsReadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{
		unreadFn: func(context.Context) ([]model.Notification, error) { return unread(5), nil },
	}
	s, _ := newNotificationState(t, backend, nil)
	s.FetchUnreadCount(ctx)

	require.True(t, s.MarkAllAsRead(ctx))
	require.Zero(t, s.UnreadCount())
	require.True(t, s.MarkAllAsRead(ctx))
	require.Zero(t, s.UnreadCount())

	require.Equal(t, 2, backend.markAllCalls)
	require.Equal(t, 1, backend.unreadCalls, "mark-all must not refetch")
}

func TestMarkAllAsReadFailureKeepsCount(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{
		unreadFn:  func(context.Context) ([]model.Notification, error) { return unread(5), nil },
		markAllFn: func(context.Context) error { return &api.EnvelopeError{Code: "XE0001", Message: "nope"} },
	}
	s, toasts := newNotificationState(t, backend, nil)
	s.FetchUnreadCount(ctx)

	require.False(t, s.MarkAllAsRead(ctx))
	require.Equal(t, 5, s.UnreadCount())
	require.Equal(t, ToastError, toasts.last().Level)
}

func TestMarkAsReadRefetches(t *testing.T) {
	ctx := context.Background()
	count := 5
	var marked string
	backend := &fakeBackend{
		unreadFn: func(context.Context) ([]model.Notification, error) { return unread(count), nil },
		markReadFn: func(_ context.Context, id string) error {
			marked = id
			count = 4
			return nil
		},
	}
	s, _ := newNotificationState(t, backend, nil)
	s.FetchUnreadCount(ctx)

	require.True(t, s.MarkAsRead(ctx, "n-1"))
	require.Equal(t, "n-1", marked)
	require.Equal(t, 4, s.UnreadCount())
	require.Equal(t, 2, backend.unreadCalls)
}

func TestMarkAsReadFailureSkipsRefetch(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{
		markReadFn: func(context.Context, string) error { return errors.New("boom") },
	}
	s, _ := newNotificationState(t, backend, nil)

	require.False(t, s.MarkAsRead(ctx, "n-1"))
	require.Zero(t, backend.unreadCalls)
}

// blockingUnread returns an unread func whose i-th call waits on
// release[i] and then reports counts[i].
func blockingUnread(counts []int, release []chan struct{}, started chan<- int) func(context.Context) ([]model.Notification, error) {
	var calls atomic.Int32
	return func(context.Context) ([]model.Notification, error) {
		i := int(calls.Add(1)) - 1
		started <- i
		<-release[i]
		return unread(counts[i]), nil
	}
}

func TestStaleFetchDoesNotOverwriteNewerFetch(t *testing.T) {
	ctx := context.Background()
	release := []chan struct{}{make(chan struct{}), make(chan struct{})}
	started := make(chan int, 2)
	backend := &fakeBackend{unreadFn: blockingUnread([]int{9, 5}, release, started)}
	s, _ := newNotificationState(t, backend, nil)

	firstDone := make(chan struct{})
	go func() {
		s.FetchUnreadCount(ctx)
		close(firstDone)
	}()
	<-started

	secondDone := make(chan struct{})
	go func() {
		s.FetchUnreadCount(ctx)
		close(secondDone)
	}()
	<-started

	close(release[1])
	<-secondDone
	require.Equal(t, 5, s.UnreadCount())

	close(release[0])
	<-firstDone
	require.Equal(t, 5, s.UnreadCount(), "older fetch must be discarded")
}

func TestStaleFetchDoesNotOverwriteMarkAll(t *testing.T) {
	ctx := context.Background()
	release := []chan struct{}{make(chan struct{})}
	started := make(chan int, 1)
	backend := &fakeBackend{unreadFn: blockingUnread([]int{9}, release, started)}
	s, _ := newNotificationState(t, backend, nil)

	done := make(chan struct{})
	go func() {
		s.FetchUnreadCount(ctx)
		close(done)
	}()
	<-started

	require.True(t, s.MarkAllAsRead(ctx))
	close(release[0])
	<-done

	require.Zero(t, s.UnreadCount())
}

func TestSubscribeReceivesChanges(t *testing.T) {
	ctx := context.Background()
	count := 3
	backend := &fakeBackend{
		unreadFn: func(context.Context) ([]model.Notification, error) { return unread(count), nil },
	}
	s, _ := newNotificationState(t, backend, nil)

	var got []int
	unsubscribe := s.Subscribe(func(n int) { got = append(got, n) })

	s.FetchUnreadCount(ctx)
	s.FetchUnreadCount(ctx) // unchanged, no publish
	require.True(t, s.MarkAllAsRead(ctx))
	unsubscribe()
	count = 8
	s.FetchUnreadCount(ctx)

	require.Equal(t, []int{3, 0}, got)
}

func TestLocationServicesDelegateToLocationState(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	loc := newLocationState(t, backend, staticLocator(10, 20))
	s, _ := newNotificationState(t, backend, loc)

	require.False(t, s.LocationStatus().Enabled)

	require.True(t, s.EnableLocationServices(ctx))
	status := s.LocationStatus()
	require.True(t, status.Enabled)
	require.NotNil(t, status.Coordinates)
	require.Equal(t, 10.0, status.Coordinates.Latitude)
	require.True(t, loc.Snapshot().LocationAllowed)

	require.True(t, s.DisableLocationServices(ctx))
	require.False(t, s.LocationStatus().Enabled)
	require.Nil(t, s.LocationStatus().Coordinates)
}

func TestLocationServicesWithoutController(t *testing.T) {
	s, _ := newNotificationState(t, &fakeBackend{}, nil)

	require.False(t, s.EnableLocationServices(context.Background()))
	require.False(t, s.DisableLocationServices(context.Background()))
	s.CheckLocationStatus(context.Background())
}

func TestCheckLocationStatusRefreshesWhenEnabled(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	require.NoError(t, st.Set(ctx, model.KeyLocationEnabled, "true"))

	backend := &fakeBackend{}
	loc := newLocationStateWithStore(t, backend, staticLocator(1.5, 2.5), st)
	s, _ := newNotificationState(t, backend, loc)

	s.CheckLocationStatus(ctx)

	status := s.LocationStatus()
	require.True(t, status.Enabled)
	require.NotNil(t, status.Coordinates)
	require.Empty(t, backend.locationUpdates, "startup check must not call the backend")
}

func TestCheckLocationStatusIgnoresDenial(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	require.NoError(t, st.Set(ctx, model.KeyLocationEnabled, "true"))

	backend := &fakeBackend{}
	loc := newLocationStateWithStore(t, backend, deniedLocator(), st)
	s, toasts := newNotificationState(t, backend, loc)

	s.CheckLocationStatus(ctx)

	require.True(t, s.LocationStatus().Enabled)
	require.Nil(t, s.LocationStatus().Coordinates)
	require.Zero(t, toasts.len())
}
