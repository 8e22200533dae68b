package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nhle/health-alerts/internal/model"
)

const notificationsPath = "/api/v1/alert/notifications"

// UnreadNotifications returns every unread notification. The backend
// returns the collection rather than a count.
func (c *Client) UnreadNotifications(ctx context.Context) ([]model.Notification, error) {
	var out []model.Notification
	if err := c.get(ctx, notificationsPath+"/unread", &out); err != nil {
		return nil, fmt.Errorf("fetching unread notifications: %w", err)
	}
	return out, nil
}

// MarkNotificationRead marks a single notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	path := fmt.Sprintf("%s/%s/read", notificationsPath, url.PathEscape(id))
	if err := c.put(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	if err := c.put(ctx, notificationsPath+"/read-all", nil, nil); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// ListNotifications returns one page of notifications.
func (c *Client) ListNotifications(ctx context.Context, opts ListOptions) (*NotificationPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(opts.Page))
	size := opts.Size
	if size <= 0 {
		size = 20
	}
	q.Set("size", strconv.Itoa(size))
	if opts.SortBy != "" {
		q.Set("sortBy", opts.SortBy)
	}
	if opts.Direction != "" {
		q.Set("direction", opts.Direction)
	}

	var page NotificationPage
	if err := c.get(ctx, notificationsPath+"?"+q.Encode(), &page); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return &page, nil
}

// NearbyAlerts returns active alerts whose area covers the given point.
func (c *Client) NearbyAlerts(ctx context.Context, at model.Coordinates) ([]model.Alert, error) {
	q := url.Values{}
	q.Set("latitude", model.FormatCoordinate(at.Latitude))
	q.Set("longitude", model.FormatCoordinate(at.Longitude))

	var out []model.Alert
	if err := c.get(ctx, "/api/v1/alert/nearby?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("fetching nearby alerts: %w", err)
	}
	return out, nil
}
