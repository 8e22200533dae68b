package sync

import (
	"context"
	"time"
)

// Surface names used by the UI.
const (
	SurfaceHeader    = "header"
	SurfaceDashboard = "dashboard"
	SurfaceNearby    = "nearby"
)

// UnreadFetcher refreshes the shared unread count.
type UnreadFetcher interface {
	FetchUnreadCount(ctx context.Context)
}

// UnreadSurface builds a surface that refreshes the unread count. The
// header and the dashboard each mount one, so two timers hit the same
// store.
func UnreadSurface(name string, interval time.Duration, f UnreadFetcher) Surface {
	return Surface{
		Name:     name,
		Interval: interval,
		Refresh: func(ctx context.Context) error {
			f.FetchUnreadCount(ctx)
			return nil
		},
	}
}
