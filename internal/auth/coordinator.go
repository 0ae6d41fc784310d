package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jfmyers9/lastfm-auth/internal/identity"
	"github.com/jfmyers9/lastfm-auth/internal/metrics"
	"github.com/rs/zerolog"
)

// UserStore is the host's user storage. The coordinator never touches
// persistent state except through it.
type UserStore interface {
	FindByExternalID(ctx context.Context, provider, uid string) (*identity.User, error)
	CreateOrUpdate(ctx context.Context, provider, uid string, c identity.Canonical) (*identity.User, bool, error)
}

// Outcome is the result of a successful login.
type Outcome struct {
	User     *identity.User
	Identity identity.Canonical
	IsNew    bool
}

// Coordinator runs the Last.fm login flow: authorization redirect, token
// exchange, profile fetch, identity mapping and the user store write.
//
// It keeps no per-login state, so one Coordinator serves concurrent callbacks.
type Coordinator struct {
	provider  Provider
	store     UserStore
	extraData []identity.FieldAlias
	logger    zerolog.Logger
}

// NewCoordinator creates a Coordinator. extraData lists the profile fields to
// surface in addition to identity.DefaultExtraData.
func NewCoordinator(provider Provider, store UserStore, extraData []identity.FieldAlias, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		provider:  provider,
		store:     store,
		extraData: extraData,
		logger:    logger.With().Str("component", "auth").Logger(),
	}
}

// Enabled reports whether the provider has credentials.
func (c *Coordinator) Enabled() bool {
	return c.provider.Enabled()
}

// AuthorizationURL returns the Last.fm redirect for a new login.
func (c *Coordinator) AuthorizationURL(callbackURL string) (string, error) {
	return c.NewAttempt().AuthorizationURL(callbackURL)
}

// Complete handles a callback arriving in a fresh request, where the redirect
// step happened earlier and elsewhere.
func (c *Coordinator) Complete(ctx context.Context, params url.Values) (*Outcome, error) {
	return c.Resume().Complete(ctx, params)
}

func (c *Coordinator) complete(ctx context.Context, params url.Values) (*Outcome, error) {
	if !c.provider.Enabled() {
		return nil, ErrProviderDisabled
	}

	token := strings.TrimSpace(params.Get("token"))
	if token == "" {
		metrics.AuthAttempts.WithLabelValues(metrics.OutcomeMissingToken).Inc()
		c.logger.Warn().Msg("Callback without token")
		return nil, ErrMissingToken
	}

	session, err := c.provider.GetSession(ctx, token)
	if err != nil {
		return nil, c.upstream("auth.getSession", err)
	}

	profile, err := c.provider.GetProfile(ctx, session)
	if err != nil {
		return nil, c.upstream("user.getinfo", err)
	}

	ident := identity.FromProfile(profile, c.extraData)
	ident.Extra[identity.AccessTokenKey] = session.Key
	if ident.ExternalID == "" {
		return nil, c.upstream("user.getinfo", errors.New("profile has no id"))
	}

	logger := c.logger.With().
		Str("username", session.Username).
		Str("external_id", ident.ExternalID).
		Logger()

	_, err = c.store.FindByExternalID(ctx, identity.Provider, ident.ExternalID)
	if err != nil && !errors.Is(err, identity.ErrUserNotFound) {
		metrics.AuthAttempts.WithLabelValues(metrics.OutcomeStoreError).Inc()
		logger.Error().Err(err).Msg("User lookup failed")
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user, created, err := c.store.CreateOrUpdate(ctx, identity.Provider, ident.ExternalID, ident)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues(metrics.OutcomeStoreError).Inc()
		logger.Error().Err(err).Msg("User store write failed")
		return nil, fmt.Errorf("failed to store user: %w", err)
	}

	outcome := metrics.OutcomeExistingUser
	if created {
		outcome = metrics.OutcomeNewUser
	}
	metrics.AuthAttempts.WithLabelValues(outcome).Inc()
	logger.Info().Str("user_id", user.ID).Bool("new_user", created).Msg("Last.fm login completed")

	return &Outcome{User: user, Identity: ident, IsNew: created}, nil
}

// upstream logs the detailed Last.fm failure and collapses it into
// ErrUpstreamUnavailable.
func (c *Coordinator) upstream(method string, err error) error {
	metrics.AuthAttempts.WithLabelValues(metrics.OutcomeUpstreamError).Inc()
	c.logger.Warn().Err(err).Str("method", method).Msg("Last.fm call failed")
	return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, method, err)
}

// Redirects holds the host's post-login destinations.
type Redirects struct {
	Default string // after login of an existing user
	NewUser string // after first login; Default when empty
	Error   string // after any failure
}

// Target picks the destination for the result of Complete.
func (r Redirects) Target(outcome *Outcome, err error) string {
	if err != nil || outcome == nil {
		return r.Error
	}
	if outcome.IsNew && r.NewUser != "" {
		return r.NewUser
	}
	return r.Default
}
