package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jfmyers9/lastfm-auth/internal/auth"
	"github.com/jfmyers9/lastfm-auth/internal/config"
	"github.com/jfmyers9/lastfm-auth/internal/store"
	"github.com/jfmyers9/lastfm-auth/pkg/lastfm"
	"github.com/rs/zerolog"
)

// loadConfig loads configuration and sets up logging. --log-level wins over
// the config file.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}

	return cfg, setupLogger(logFile, level), nil
}

// openStore opens the user database, creating its directory
func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	users, err := store.NewSQLite(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open user database: %w", err)
	}
	return users, nil
}

// newCoordinator builds the login coordinator. Without credentials the
// provider is disabled rather than failing.
func newCoordinator(cfg *config.Config, users auth.UserStore, logger zerolog.Logger) (*auth.Coordinator, error) {
	extra, err := cfg.ExtraDataFields()
	if err != nil {
		return nil, err
	}

	var client *lastfm.Client
	if cfg.Enabled() {
		client, err = lastfm.NewClient(lastfm.Config{
			APIKey:    cfg.LastFM.APIKey,
			APISecret: cfg.LastFM.APISecret,
			Timeout:   cfg.LastFM.Timeout,
			BaseURL:   cfg.LastFM.APIURL,
			AuthURL:   cfg.LastFM.AuthURL,
			Logger:    lastfmLogger{logger: logger.With().Str("component", "lastfm").Logger()},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Last.fm client: %w", err)
		}
	}

	return auth.NewCoordinator(auth.NewLastfmProvider(client), users, extra, logger), nil
}
