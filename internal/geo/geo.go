// Package geo acquires the user's position. It mirrors the browser
// geolocation contract: single-shot acquisition with accuracy, timeout
// and maximum-age options, and a three-way error classification.
package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/health-alerts/internal/model"
)

// ErrorCode classifies why a position could not be acquired.
type ErrorCode int

const (
	PermissionDenied ErrorCode = iota + 1
	PositionUnavailable
	Timeout
)

func (c ErrorCode) String() string {
	switch c {
	case PermissionDenied:
		return "permission_denied"
	case PositionUnavailable:
		return "position_unavailable"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is returned by every Locator on failure.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geolocation %s: %v", e.Code, e.Err)
	}
	return "geolocation " + e.Code.String()
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage is the text shown to the user for this failure.
func (e *Error) UserMessage() string {
	switch e.Code {
	case PermissionDenied:
		return "Location access was denied. Allow location access to receive nearby alerts."
	case PositionUnavailable:
		return "Your location is currently unavailable. Please try again later."
	case Timeout:
		return "Getting your location took too long. Please try again."
	default:
		return "Could not determine your location."
	}
}

// CodeOf returns the ErrorCode carried by err, or 0.
func CodeOf(err error) ErrorCode {
	var geoErr *Error
	if errors.As(err, &geoErr) {
		return geoErr.Code
	}
	return 0
}

// Options mirror the browser PositionOptions.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	// MaximumAge is how old a cached fix may be. Zero forces a fresh fix.
	MaximumAge time.Duration
}

// DefaultOptions returns high accuracy, a 10s timeout and no cache reuse.
func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      10 * time.Second,
		MaximumAge:   0,
	}
}

// Position is a single location fix.
type Position struct {
	model.Coordinates
	AccuracyMeters float64
	Timestamp      time.Time
}

// Locator acquires a single position fix.
type Locator interface {
	Locate(ctx context.Context, opts Options) (Position, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context, opts Options) (Position, error)

func (f LocatorFunc) Locate(ctx context.Context, opts Options) (Position, error) {
	return f(ctx, opts)
}

// withTimeout applies opts.Timeout to ctx and runs fn, translating a
// deadline into a Timeout error and any other failure into
// PositionUnavailable unless fn already returned a *Error.
func withTimeout(
	ctx context.Context,
	opts Options,
	fn func(ctx context.Context) (Position, error),
) (Position, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	pos, err := fn(ctx)
	if err == nil {
		if vErr := pos.Validate(); vErr != nil {
			return Position{}, &Error{Code: PositionUnavailable, Err: vErr}
		}
		return pos, nil
	}

	var geoErr *Error
	if errors.As(err, &geoErr) {
		return Position{}, err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Position{}, &Error{Code: Timeout, Err: err}
	}
	return Position{}, &Error{Code: PositionUnavailable, Err: err}
}
