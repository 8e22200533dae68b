package model

import "time"

// Severity levels reported by the alert service.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityLow      = "LOW"
)

// Notification is the client-side read-model of an alert that matched the
// user's location. It is created server-side and only ever transitions
// from unread to read.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// AlertID links this notification to the originating alert.
	AlertID string `json:"alertId"`

	// Title is the short alert headline.
	Title string `json:"title"`

	// Description is the full alert text.
	Description string `json:"description"`

	// Severity is one of the Severity* constants.
	Severity string `json:"severity"`

	// Distance is the distance in kilometres from the user's last known
	// position to the alert area, as computed by the backend.
	Distance float64 `json:"distance"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// ReadAt is when the notification was marked read, if it has been.
	ReadAt *time.Time `json:"readAt,omitempty"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"createdAt"`
}
