package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jfmyers9/lastfm-auth/internal/identity"
	"github.com/jfmyers9/lastfm-auth/pkg/lastfm"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Last.fm API credentials and endpoints
	LastFM LastFMConfig

	// HTTP server settings for the serve command
	Server ServerConfig

	// Post-login destinations
	Redirects RedirectsConfig

	// Path to the SQLite user database
	// Default: ~/.local/share/lastfm-auth/users.db
	Database string

	// Log level (debug, info, warn, error)
	LogLevel string

	// file is where Save writes; empty means the default config dir
	file string
}

// LastFMConfig holds Last.fm specific configuration
type LastFMConfig struct {
	APIKey    string
	APISecret string

	// Profile fields to copy into extra data, as "source" or "source:alias"
	ExtraData []string

	Timeout time.Duration
	APIURL  string
	AuthURL string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr string

	// Rewrite https callback URLs to http before sending them to Last.fm
	ForceHTTPCallback bool
}

// RedirectsConfig holds the URLs users land on after the callback
type RedirectsConfig struct {
	Default string
	NewUser string
	Error   string
}

// Load reads configuration from .env, the config file and environment.
// An empty configFile searches the default config dir and the working directory.
func Load(configFile string) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(getConfigDir())
		v.AddConfigPath(".")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicitly named file must exist; the default one is optional
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("LASTFM_AUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		LastFM: LastFMConfig{
			APIKey:    v.GetString("lastfm.api_key"),
			APISecret: v.GetString("lastfm.api_secret"),
			ExtraData: v.GetStringSlice("lastfm.extra_data"),
			Timeout:   v.GetDuration("lastfm.timeout"),
			APIURL:    v.GetString("lastfm.api_url"),
			AuthURL:   v.GetString("lastfm.auth_url"),
		},
		Server: ServerConfig{
			Addr:              v.GetString("server.addr"),
			ForceHTTPCallback: v.GetBool("server.force_http_callback"),
		},
		Redirects: RedirectsConfig{
			Default: v.GetString("redirects.default"),
			NewUser: v.GetString("redirects.new_user"),
			Error:   v.GetString("redirects.error"),
		},
		Database: expandHome(v.GetString("database")),
		LogLevel: v.GetString("log_level"),
		file:     v.ConfigFileUsed(),
	}

	if _, err := cfg.ExtraDataFields(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("lastfm.timeout", lastfm.DefaultTimeout)
	v.SetDefault("lastfm.api_url", lastfm.DefaultBaseURL)
	v.SetDefault("lastfm.auth_url", lastfm.DefaultAuthURL)
	v.SetDefault("lastfm.extra_data", []string{})
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.force_http_callback", false)
	v.SetDefault("redirects.default", "/")
	v.SetDefault("redirects.new_user", "")
	v.SetDefault("redirects.error", "/login-error/")
	v.SetDefault("database", filepath.Join(getDataDir(), "users.db"))
	v.SetDefault("log_level", "info")
}

// Credentials returns the Last.fm API key and secret
func (c *Config) Credentials() lastfm.Credentials {
	return lastfm.Credentials{APIKey: c.LastFM.APIKey, APISecret: c.LastFM.APISecret}
}

// Enabled reports whether both Last.fm credentials are set
func (c *Config) Enabled() bool {
	return c.Credentials().Enabled()
}

// ExtraDataFields parses lastfm.extra_data. "playcount" copies playcount under
// its own name; "playcount:plays" stores it as plays.
func (c *Config) ExtraDataFields() ([]identity.FieldAlias, error) {
	fields := make([]identity.FieldAlias, 0, len(c.LastFM.ExtraData))
	for _, entry := range c.LastFM.ExtraData {
		source, alias, found := strings.Cut(strings.TrimSpace(entry), ":")
		source = strings.TrimSpace(source)
		alias = strings.TrimSpace(alias)
		if !found {
			alias = source
		}
		if source == "" || alias == "" {
			return nil, fmt.Errorf("invalid extra_data entry %q", entry)
		}
		fields = append(fields, identity.FieldAlias{Source: source, Alias: alias})
	}
	return fields, nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "lastfm-auth")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

func getDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".local", "share", "lastfm-auth")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}

// Save writes configuration to the file it was loaded from, or to
// config.yaml in the config dir
func (c *Config) Save() error {
	v := viper.New()

	configFile := c.file
	if configFile == "" {
		configFile = filepath.Join(getConfigDir(), "config.yaml")
	}

	v.Set("lastfm.api_key", c.LastFM.APIKey)
	v.Set("lastfm.api_secret", c.LastFM.APISecret)
	v.Set("lastfm.extra_data", c.LastFM.ExtraData)
	v.Set("lastfm.timeout", c.LastFM.Timeout.String())
	v.Set("lastfm.api_url", c.LastFM.APIURL)
	v.Set("lastfm.auth_url", c.LastFM.AuthURL)
	v.Set("server.addr", c.Server.Addr)
	v.Set("server.force_http_callback", c.Server.ForceHTTPCallback)
	v.Set("redirects.default", c.Redirects.Default)
	v.Set("redirects.new_user", c.Redirects.NewUser)
	v.Set("redirects.error", c.Redirects.Error)
	v.Set("database", c.Database)
	v.Set("log_level", c.LogLevel)

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	// Write to file
	return v.WriteConfigAs(configFile)
}
