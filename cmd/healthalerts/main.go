package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/nhle/health-alerts/internal/api"
	"github.com/nhle/health-alerts/internal/app"
	"github.com/nhle/health-alerts/internal/credential"
	"github.com/nhle/health-alerts/internal/geo"
	"github.com/nhle/health-alerts/internal/logging"
	"github.com/nhle/health-alerts/internal/model"
	"github.com/nhle/health-alerts/internal/state"
	"github.com/nhle/health-alerts/internal/store"
	appsync "github.com/nhle/health-alerts/internal/sync"
	"github.com/nhle/health-alerts/internal/ui/tokenprompt"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "healthalerts: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	resetToken bool
}

// parseFlags registers the command-line flags and binds the ones that
// mirror config keys into v.
func parseFlags(args []string, v *viper.Viper) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("healthalerts", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", model.DefaultConfigPath(), "path to config.yaml")
	fs.BoolVar(&opts.resetToken, "reset-token", false, "forget the stored API token and ask again")
	fs.String("base-url", "", "alert service base URL")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("location-provider", "", "geolocation provider (ip or static)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	bindings := map[string]string{
		"api.base_url":      "base-url",
		"log.level":         "log-level",
		"location.provider": "location-provider",
	}
	for key, flag := range bindings {
		if f := fs.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return opts, fmt.Errorf("binding flag %s: %w", flag, err)
			}
		}
	}

	return opts, nil
}

func run(args []string) (err error) {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	v := model.NewViper()
	opts, err := parseFlags(args, v)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := model.LoadConfigFrom(v, opts.configPath)
	if err != nil {
		return err
	}

	logg, logFile, err := logging.NewFile(cfg.Log.File, logging.Options{
		Component: "healthalerts",
		Level:     logging.ParseLevel(cfg.Log.Level),
		Format:    cfg.Log.Format,
	})
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, logFile.Close()) }()

	ctx := logg.WithFields(context.Background(), map[string]any{
		"base_url": cfg.API.BaseURL,
		"provider": cfg.Location.Provider,
	})
	logg.Info(ctx, "starting")

	db, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		logg.Error(ctx, "failed to open local state", err)
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	token, err := loadToken(cfg, opts.resetToken)
	if err != nil {
		logg.Error(ctx, "no API token", err)
		return err
	}

	client := api.NewClient(cfg.API.BaseURL, token,
		api.WithTimeout(cfg.API.Timeout()),
		api.WithLogger(logg),
	)

	consent := geo.NewConsent(model.PermissionUnknown)
	geoOpts := geo.DefaultOptions()
	geoOpts.Timeout = cfg.Location.Timeout()

	toasts := state.NewToastQueue(16)
	svc := state.New(ctx, state.Deps{
		Backend:    client,
		Locator:    geo.NewGate(consent, newLocator(cfg.Location)),
		Store:      db,
		Notifier:   toasts,
		Logger:     logg,
		GeoOptions: geoOpts,
	})
	defer svc.Close()

	// Consent given in an earlier session carries over.
	if svc.Location.Snapshot().LocationAllowed {
		consent.Grant()
	}

	poller := appsync.New(
		appsync.WithLogger(logg),
		appsync.WithFetchTimeout(cfg.API.Timeout()),
	)

	root := app.New(app.Deps{
		Services: svc,
		Backend:  client,
		Poller:   poller,
		Consent:  consent,
		Toasts:   toasts,
		Polling:  cfg.Polling,
		Logger:   logg,

		Config:     cfg,
		ConfigPath: opts.configPath,
	})
	defer root.Shutdown()

	if _, err := tea.NewProgram(root, tea.WithAltScreen()).Run(); err != nil {
		logg.Error(ctx, "terminal UI stopped unexpectedly", err)
		return fmt.Errorf("running UI: %w", err)
	}

	logg.Info(ctx, "stopped")
	return nil
}

// loadToken returns the stored token or prompts for one and stores it.
func loadToken(cfg *model.AppConfig, reset bool) (string, error) {
	vault, err := credential.Open(filepath.Join(filepath.Dir(cfg.Storage.Path), "credentials"))
	if err != nil {
		return "", err
	}

	if reset {
		if err := vault.ResetToken(); err != nil {
			return "", err
		}
	}

	token, err := vault.Token()
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, credential.ErrNoToken) {
		return "", err
	}

	token, err = tokenprompt.Run(cfg.API.BaseURL)
	if err != nil {
		return "", err
	}
	if err := vault.SetToken(token); err != nil {
		return "", err
	}
	return token, nil
}

// newLocator builds the configured geolocation provider.
func newLocator(cfg model.LocationConfig) geo.Locator {
	if cfg.Provider == model.LocationProviderStatic {
		return geo.StaticLocator{At: model.Coordinates{
			Latitude:  cfg.StaticLatitude,
			Longitude: cfg.StaticLongitude,
		}}
	}
	return geo.NewIPLocator(cfg.IPEndpoint, &http.Client{Timeout: cfg.Timeout()})
}
