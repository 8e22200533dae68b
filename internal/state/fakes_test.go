package state

import (
	"context"
	"sync"

	"github.com/nhle/health-alerts/internal/api"
	"github.com/nhle/health-alerts/internal/model"
)

type fakeBackend struct {
	mu sync.Mutex

	unreadFn         func(ctx context.Context) ([]model.Notification, error)
	markReadFn       func(ctx context.Context, id string) error
	markAllFn        func(ctx context.Context) error
	updateLocationFn func(ctx context.Context, u api.LocationUpdate) error
	updateProfileFn  func(ctx context.Context, at model.Coordinates) error
	locationUpdates  []api.LocationUpdate
	profileUpdates   []model.Coordinates
	markAllCalls     int
	unreadCalls      int
}

func (f *fakeBackend) UnreadNotifications(ctx context.Context) ([]model.Notification, error) {
	f.mu.Lock()
	f.unreadCalls++
	fn := f.unreadFn
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx)
}

func (f *fakeBackend) MarkNotificationRead(ctx context.Context, id string) error {
	if f.markReadFn == nil {
		return nil
	}
	return f.markReadFn(ctx, id)
}

func (f *fakeBackend) MarkAllNotificationsRead(ctx context.Context) error {
	f.mu.Lock()
	f.markAllCalls++
	f.mu.Unlock()
	if f.markAllFn == nil {
		return nil
	}
	return f.markAllFn(ctx)
}

func (f *fakeBackend) UpdateLocation(ctx context.Context, u api.LocationUpdate) error {
	f.mu.Lock()
	f.locationUpdates = append(f.locationUpdates, u)
	f.mu.Unlock()
	if f.updateLocationFn == nil {
		return nil
	}
	return f.updateLocationFn(ctx, u)
}

func (f *fakeBackend) UpdateProfileLocation(ctx context.Context, at model.Coordinates) error {
	f.mu.Lock()
	f.profileUpdates = append(f.profileUpdates, at)
	f.mu.Unlock()
	if f.updateProfileFn == nil {
		return nil
	}
	return f.updateProfileFn(ctx, at)
}

func unread(n int) []model.Notification {
	out := make([]model.Notification, n)
	for i := range out {
		out[i] = model.Notification{ID: string(rune('a' + i))}
	}
	return out
}

// toastRecorder collects toasts in order.
type toastRecorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *toastRecorder) Notify(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

func (r *toastRecorder) last() Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}
	}
	return r.toasts[len(r.toasts)-1]
}

func (r *toastRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.toasts)
}
