package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/nhle/health-alerts/internal/model"
)

// ipAccuracyMeters is the nominal accuracy of an IP-derived fix.
const ipAccuracyMeters = 5000

// ipResponse covers the common field names used by IP geolocation
// services (ipapi.co uses latitude/longitude, ip-api.com uses lat/lon).
type ipResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

// IPLocator derives a coarse position from the machine's public IP.
// It keeps the last fix so that Options.MaximumAge can be honored.
type IPLocator struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time

	mu   sync.Mutex
	last *Position
}

// NewIPLocator creates a locator querying endpoint. A nil client uses
// http.DefaultClient; the per-call timeout comes from Options.
func NewIPLocator(endpoint string, hc *http.Client) *IPLocator {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &IPLocator{endpoint: endpoint, httpClient: hc, now: time.Now}
}

// Locate returns a cached fix younger than opts.MaximumAge, or queries
// the endpoint.
func (l *IPLocator) Locate(ctx context.Context, opts Options) (Position, error) {
	if cached, ok := l.cached(opts.MaximumAge); ok {
		return cached, nil
	}

	pos, err := withTimeout(ctx, opts, l.fetch)
	if err != nil {
		return Position{}, err
	}

	l.mu.Lock()
	l.last = &pos
	l.mu.Unlock()

	return pos, nil
}

func (l *IPLocator) cached(maxAge time.Duration) (Position, bool) {
	if maxAge <= 0 {
		return Position{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil || l.now().Sub(l.last.Timestamp) > maxAge {
		return Position{}, false
	}
	return *l.last, true
}

func (l *IPLocator) fetch(ctx context.Context) (Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return Position{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("querying %s: %w", l.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Position{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode == http.StatusForbidden {
		return Position{}, &Error{Code: PermissionDenied, Err: fmt.Errorf("endpoint refused lookup")}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Position{}, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, l.endpoint)
	}

	var r ipResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return Position{}, fmt.Errorf("decoding response: %w", err)
	}
	if r.Error {
		return Position{}, fmt.Errorf("lookup failed: %s", r.Reason)
	}

	lat, lng := r.Latitude, r.Longitude
	if lat == nil || lng == nil {
		lat, lng = r.Lat, r.Lon
	}
	if lat == nil || lng == nil {
		return Position{}, fmt.Errorf("response has no coordinates")
	}

	return Position{
		Coordinates:    model.Coordinates{Latitude: *lat, Longitude: *lng},
		AccuracyMeters: ipAccuracyMeters,
		Timestamp:      l.now(),
	}, nil
}
