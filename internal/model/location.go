package model

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Durable storage keys owned by the location subsystem.
const (
	KeyLocationEnabled = "locationEnabled"
	KeyUserLat         = "userLat"
	KeyUserLng         = "userLng"
)

// LocationPermission is the user's consent state for location access.
type LocationPermission int

const (
	PermissionUnknown LocationPermission = iota
	PermissionEnabled
	PermissionDisabled
)

func (p LocationPermission) String() string {
	switch p {
	case PermissionEnabled:
		return "enabled"
	case PermissionDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that both components are within range.
func (c Coordinates) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid coordinates (%f, %f): %w", c.Latitude, c.Longitude, err)
	}
	return nil
}

// String renders the pair with six decimals.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}

// FormatCoordinate encodes a coordinate component for durable storage.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseCoordinate decodes a coordinate component from durable storage.
func ParseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing coordinate %q: %w", s, err)
	}
	return v, nil
}

// FormatBool encodes a flag the way durable storage expects ("true"/"false").
func FormatBool(b bool) string {
	return strconv.FormatBool(b)
}
