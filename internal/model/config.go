package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Location provider names accepted in LocationConfig.Provider.
const (
	LocationProviderIP     = "ip"
	LocationProviderStatic = "static"
)

// APIConfig holds the backend connection settings.
type APIConfig struct {
	// BaseURL is the root URL of the alert service (without /api/v1).
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`

	// TimeoutSec bounds each HTTP request. Zero uses the client default.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec" validate:"gte=0"`
}

// PollingConfig controls how often each UI surface refreshes.
type PollingConfig struct {
	HeaderIntervalSec    int `mapstructure:"header_interval_sec" yaml:"header_interval_sec" validate:"gt=0"`
	DashboardIntervalSec int `mapstructure:"dashboard_interval_sec" yaml:"dashboard_interval_sec" validate:"gt=0"`
	NearbyIntervalSec    int `mapstructure:"nearby_interval_sec" yaml:"nearby_interval_sec" validate:"gt=0"`
}

// LocationConfig selects and configures the geolocation provider.
type LocationConfig struct {
	Provider        string  `mapstructure:"provider" yaml:"provider" validate:"oneof=ip static"`
	IPEndpoint      string  `mapstructure:"ip_endpoint" yaml:"ip_endpoint" validate:"omitempty,url"`
	StaticLatitude  float64 `mapstructure:"static_latitude" yaml:"static_latitude" validate:"latitude"`
	StaticLongitude float64 `mapstructure:"static_longitude" yaml:"static_longitude" validate:"longitude"`
	TimeoutSec      int     `mapstructure:"timeout_sec" yaml:"timeout_sec" validate:"gt=0"`
}

// StorageConfig locates the durable local state database.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=json console"`
	File   string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API      APIConfig      `mapstructure:"api" yaml:"api"`
	Polling  PollingConfig  `mapstructure:"polling" yaml:"polling"`
	Location LocationConfig `mapstructure:"location" yaml:"location"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// Timeout returns the per-request timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// HeaderInterval returns the header badge poll interval.
func (c PollingConfig) HeaderInterval() time.Duration {
	return time.Duration(c.HeaderIntervalSec) * time.Second
}

// DashboardInterval returns the dashboard unread poll interval.
func (c PollingConfig) DashboardInterval() time.Duration {
	return time.Duration(c.DashboardIntervalSec) * time.Second
}

// NearbyInterval returns the nearby-alert refresh interval.
func (c PollingConfig) NearbyInterval() time.Duration {
	return time.Duration(c.NearbyIntervalSec) * time.Second
}

// Timeout returns the geolocation acquisition timeout.
func (c LocationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// EnvPrefix is the prefix for environment overrides, e.g.
// HEALTHALERTS_API_BASE_URL.
const EnvPrefix = "HEALTHALERTS"

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/healthalerts/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "healthalerts", "config.yaml")
}

// defaultDataPath returns a path under ~/.local/<kind>/healthalerts.
func defaultDataPath(kind, name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", name)
	}
	return filepath.Join(home, ".local", kind, "healthalerts", name)
}

// setDefaults registers every default on v so that missing keys and
// environment-only setups resolve to sensible values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("polling.header_interval_sec", 60)
	v.SetDefault("polling.dashboard_interval_sec", 60)
	v.SetDefault("polling.nearby_interval_sec", 300)
	v.SetDefault("location.provider", LocationProviderIP)
	v.SetDefault("location.ip_endpoint", "https://ipapi.co/json/")
	v.SetDefault("location.static_latitude", 0.0)
	v.SetDefault("location.static_longitude", 0.0)
	v.SetDefault("location.timeout_sec", 10)
	v.SetDefault("storage.path", defaultDataPath("share", "state.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", defaultDataPath("state", "healthalerts.log"))
}

// NewViper returns a Viper instance with defaults and HEALTHALERTS_*
// environment overrides registered. Callers may bind flags before passing
// it to LoadConfigFrom.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) apply.
func LoadConfig(path string) (*AppConfig, error) {
	return LoadConfigFrom(NewViper(), path)
}

// LoadConfigFrom reads path into v, unmarshals and validates the result.
func LoadConfigFrom(v *viper.Viper, path string) (*AppConfig, error) {
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("polling", cfg.Polling)
	v.Set("location", cfg.Location)
	v.Set("storage", cfg.Storage)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
