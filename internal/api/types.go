package api

import (
	"encoding/json"

	"github.com/nhle/health-alerts/internal/model"
)

// envelope is the wrapper every backend response uses.
type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Page is a page of results from a paginated listing.
type Page[T any] struct {
	Content       []T  `json:"content"`
	Page          int  `json:"page"`
	Size          int  `json:"size"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Last          bool `json:"last"`
}

// Sort directions accepted by listing endpoints.
const (
	DirectionAsc  = "ASC"
	DirectionDesc = "DESC"
)

// ListOptions controls pagination and ordering of notification listings.
type ListOptions struct {
	Page      int
	Size      int
	SortBy    string
	Direction string
}

// LocationUpdate is the body of PUT /api/v1/location/update. Coordinates
// are nil when location services are being disabled.
type LocationUpdate struct {
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	LocationAllowed bool     `json:"locationAllowed"`
}

// profileLocation is the body of the user-profile coordinate mirror.
type profileLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NotificationPage is a page of notifications.
type NotificationPage = Page[model.Notification]
