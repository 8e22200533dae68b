package state

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/health-alerts/internal/logging"
)

// ToastLevel is the severity of a toast.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastError
)

func (l ToastLevel) String() string {
	switch l {
	case ToastSuccess:
		return "success"
	case ToastError:
		return "error"
	default:
		return "info"
	}
}

// Toast is a transient user-facing message. It is the only channel
// through which the stores report failures to the user.
type Toast struct {
	ID      string
	Level   ToastLevel
	Message string
	At      time.Time
}

// NewToast stamps a toast with a fresh ID and the current time.
func NewToast(level ToastLevel, msg string) Toast {
	return Toast{
		ID:      uuid.NewString(),
		Level:   level,
		Message: msg,
		At:      time.Now(),
	}
}

// Notifier receives toasts. Implementations must not block.
type Notifier interface {
	Notify(t Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Toast)

func (f NotifierFunc) Notify(t Toast) { f(t) }

// ToastQueue buffers toasts for the UI. When the buffer is full new
// toasts are dropped rather than blocking the store.
type ToastQueue struct {
	ch chan Toast
}

// NewToastQueue creates a queue holding up to size toasts.
func NewToastQueue(size int) *ToastQueue {
	if size <= 0 {
		size = 8
	}
	return &ToastQueue{ch: make(chan Toast, size)}
}

// Notify enqueues t without blocking.
func (q *ToastQueue) Notify(t Toast) {
	select {
	case q.ch <- t:
	default:
	}
}

// C returns the receive side of the queue.
func (q *ToastQueue) C() <-chan Toast {
	return q.ch
}

// LogNotifier writes toasts to the log. Used when no UI is attached.
type LogNotifier struct {
	Log *logging.Logger
}

func (n LogNotifier) Notify(t Toast) {
	ctx := n.Log.WithField(context.Background(), "toast_id", t.ID)
	if t.Level == ToastError {
		n.Log.Warn(ctx, t.Message, nil)
		return
	}
	n.Log.Info(ctx, t.Message)
}
