package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nhle/health-alerts/internal/model"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.True(t, opts.HighAccuracy)
	require.Equal(t, 10*time.Second, opts.Timeout)
	require.Zero(t, opts.MaximumAge)
}

func TestGateDeniesWithoutConsent(t *testing.T) {
	for _, state := range []model.LocationPermission{model.PermissionUnknown, model.PermissionDisabled} {
		gate := NewGate(NewConsent(state), StaticLocator{At: model.Coordinates{Latitude: 1, Longitude: 2}})

		_, err := gate.Locate(context.Background(), DefaultOptions())
		require.Equal(t, PermissionDenied, CodeOf(err), state.String())
	}
}

func TestGatePassesThroughAfterGrant(t *testing.T) {
	consent := NewConsent(model.PermissionUnknown)
	gate := NewGate(consent, StaticLocator{At: model.Coordinates{Latitude: 1, Longitude: 2}})
	consent.Grant()

	pos, err := gate.Locate(context.Background(), DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1.0, pos.Latitude)
	require.Equal(t, 2.0, pos.Longitude)
}

func TestTimeoutIsClassified(t *testing.T) {
	slow := LocatorFunc(func(ctx context.Context, opts Options) (Position, error) {
		return withTimeout(ctx, opts, func(ctx context.Context) (Position, error) {
			<-ctx.Done()
			return Position{}, ctx.Err()
		})
	})

	_, err := slow.Locate(context.Background(), Options{Timeout: 10 * time.Millisecond})
	require.Equal(t, Timeout, CodeOf(err))

	var geoErr *Error
	require.ErrorAs(t, err, &geoErr)
	require.Contains(t, geoErr.UserMessage(), "too long")
}

func TestOutOfRangeFixIsUnavailable(t *testing.T) {
	_, err := StaticLocator{At: model.Coordinates{Latitude: 123, Longitude: 0}}.
		Locate(context.Background(), DefaultOptions())
	require.Equal(t, PositionUnavailable, CodeOf(err))
}

func TestUserMessagesAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, code := range []ErrorCode{PermissionDenied, PositionUnavailable, Timeout} {
		msg := (&Error{Code: code}).UserMessage()
		require.False(t, seen[msg], "duplicate message for %s", code)
		seen[msg] = true
	}
}

func TestIPLocatorParsesBothFieldStyles(t *testing.T) {
	bodies := []string{
		`{"latitude": 52.37, "longitude": 4.89}`,
		`{"lat": 52.37, "lon": 4.89}`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		pos, err := NewIPLocator(srv.URL, srv.Client()).Locate(context.Background(), DefaultOptions())
		srv.Close()

		require.NoError(t, err, body)
		require.Equal(t, 52.37, pos.Latitude)
		require.Equal(t, 4.89, pos.Longitude)
	}
}

func TestIPLocatorHonorsMaximumAge(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"latitude": 1, "longitude": 1}`))
	}))
	t.Cleanup(srv.Close)

	loc := NewIPLocator(srv.URL, srv.Client())
	ctx := context.Background()

	_, err := loc.Locate(ctx, DefaultOptions())
	require.NoError(t, err)
	_, err = loc.Locate(ctx, DefaultOptions())
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load(), "zero MaximumAge must not reuse a fix")

	cachedOpts := DefaultOptions()
	cachedOpts.MaximumAge = time.Minute
	_, err = loc.Locate(ctx, cachedOpts)
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())
}

func TestIPLocatorFailuresAreUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": true, "reason": "RateLimited"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewIPLocator(srv.URL, srv.Client()).Locate(context.Background(), DefaultOptions())
	require.Equal(t, PositionUnavailable, CodeOf(err))
	require.False(t, errors.Is(err, context.DeadlineExceeded))
}
