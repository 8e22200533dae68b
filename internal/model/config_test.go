package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	require.Equal(t, time.Minute, cfg.Polling.HeaderInterval())
	require.Equal(t, time.Minute, cfg.Polling.DashboardInterval())
	require.Equal(t, 5*time.Minute, cfg.Polling.NearbyInterval())
	require.Equal(t, 10*time.Second, cfg.Location.Timeout())
	require.Equal(t, LocationProviderIP, cfg.Location.Provider)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://alerts.example.org/
polling:
  header_interval_sec: 15
location:
  provider: static
  static_latitude: 52.52
  static_longitude: 13.405
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "https://alerts.example.org", cfg.API.BaseURL)
	require.Equal(t, 15*time.Second, cfg.Polling.HeaderInterval())
	require.Equal(t, time.Minute, cfg.Polling.DashboardInterval())
	require.Equal(t, LocationProviderStatic, cfg.Location.Provider)
	require.Equal(t, 52.52, cfg.Location.StaticLatitude)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("HEALTHALERTS_API_BASE_URL", "https://env.example.org")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "https://env.example.org", cfg.API.BaseURL)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
location:
  provider: gps
  static_latitude: 123
`), 0o600))

	_, err := LoadConfig(path)
	require.ErrorContains(t, err, "invalid config")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.API.BaseURL = "https://saved.example.org"
	cfg.Polling.NearbyIntervalSec = 120

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "https://saved.example.org", loaded.API.BaseURL)
	require.Equal(t, 2*time.Minute, loaded.Polling.NearbyInterval())
}
