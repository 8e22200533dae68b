package api

import (
	"context"
	"fmt"

	"github.com/nhle/health-alerts/internal/model"
)

// UpdateLocation pushes the user's coordinates (or nil coordinates when
// disabling) to the location service.
func (c *Client) UpdateLocation(ctx context.Context, update LocationUpdate) error {
	if err := c.put(ctx, "/api/v1/location/update", update, nil); err != nil {
		return fmt.Errorf("updating location: %w", err)
	}
	return nil
}

// UpdateProfileLocation mirrors the coordinates onto the user profile.
func (c *Client) UpdateProfileLocation(ctx context.Context, at model.Coordinates) error {
	body := profileLocation{Latitude: at.Latitude, Longitude: at.Longitude}
	if err := c.put(ctx, "/api/v1/user/user-profile-latitude-longitude-update", body, nil); err != nil {
		return fmt.Errorf("updating profile location: %w", err)
	}
	return nil
}

// CurrentUser returns the signed-in user's profile.
func (c *Client) CurrentUser(ctx context.Context) (*model.UserProfile, error) {
	var u model.UserProfile
	if err := c.get(ctx, "/api/v1/user", &u); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &u, nil
}
