package model

import "time"

// Alert is a geofenced health alert published by the backend.
type Alert struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Severity    string     `json:"severity"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	RadiusKm    float64    `json:"radiusKm"`
	Distance    float64    `json:"distance"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// IsExpired reports whether the alert has an expiry in the past.
func (a Alert) IsExpired(now time.Time) bool {
	return a.ExpiresAt != nil && a.ExpiresAt.Before(now)
}
