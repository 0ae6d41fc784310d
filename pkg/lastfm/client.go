package lastfm

import (
	"fmt"
	"net/http"
	"time"
)

// Config holds client configuration.
type Config struct {
	APIKey     string        // Required: Last.fm API key
	APISecret  string        // Required: Last.fm shared secret
	HTTPClient *http.Client  // Optional: HTTP client (defaults to one with Timeout)
	Timeout    time.Duration // Optional: per-call timeout for the default HTTP client
	BaseURL    string        // Optional: Base URL for API (defaults to Last.fm API, used for testing)
	AuthURL    string        // Optional: authorization page (defaults to Last.fm, used for testing)
	Logger     Logger        // Optional: Logger interface for debug logging
}

// Credentials is the key/secret pair issued to a Last.fm API account.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Enabled reports whether both halves of the pair are present.
func (c Credentials) Enabled() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client is the main entry point for Last.fm API operations.
//
// A Client holds no per-user state and is safe for concurrent use.
type Client struct {
	creds      Credentials
	httpClient *http.Client
	baseURL    string
	authURL    string
	logger     Logger

	auth *AuthService
	user *UserService
}

const (
	// DefaultBaseURL is the default Last.fm API endpoint.
	DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

	// DefaultAuthURL is the page users are sent to for granting access.
	DefaultAuthURL = "https://www.last.fm/api/auth/"

	// DefaultTimeout bounds every API round trip made with the default HTTP client.
	DefaultTimeout = 10 * time.Second
)

// NewClient creates a new Last.fm API client.
//
// Returns an error if required configuration (APIKey, APISecret) is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: APIKey is required", ErrInvalidConfig)
	}
	if cfg.APISecret == "" {
		return nil, fmt.Errorf("%w: APISecret is required", ErrInvalidConfig)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}

	c := &Client{
		creds:      Credentials{APIKey: cfg.APIKey, APISecret: cfg.APISecret},
		httpClient: httpClient,
		baseURL:    baseURL,
		authURL:    authURL,
		logger:     cfg.Logger,
	}

	c.auth = &AuthService{client: c}
	c.user = &UserService{client: c}

	return c, nil
}

// Auth returns the authentication service.
func (c *Client) Auth() *AuthService {
	return c.auth
}

// User returns the user profile service.
func (c *Client) User() *UserService {
	return c.user
}

// Credentials returns the key/secret pair the client signs with.
func (c *Client) Credentials() Credentials {
	return c.creds
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
