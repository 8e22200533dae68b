package model

// UserProfile is the signed-in user as returned by the backend.
type UserProfile struct {
	ID              string   `json:"id"`
	Email           string   `json:"email"`
	FullName        string   `json:"fullName"`
	Phone           string   `json:"phone"`
	Role            string   `json:"role"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	LocationAllowed bool     `json:"locationAllowed"`
}

// DisplayName returns the full name, falling back to the email address.
func (u UserProfile) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
