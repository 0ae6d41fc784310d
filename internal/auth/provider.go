package auth

import (
	"context"
	"time"

	"github.com/jfmyers9/lastfm-auth/internal/metrics"
	"github.com/jfmyers9/lastfm-auth/pkg/lastfm"
)

// Provider is the slice of the Last.fm API the coordinator drives.
type Provider interface {
	// Enabled reports whether API credentials are configured.
	Enabled() bool

	// AuthURL returns the authorization redirect for callbackURL.
	AuthURL(callbackURL string) string

	// GetSession exchanges a request token for a session.
	GetSession(ctx context.Context, token string) (*lastfm.Session, error)

	// GetProfile fetches the profile of the user behind a session.
	GetProfile(ctx context.Context, session *lastfm.Session) (lastfm.Profile, error)
}

// LastfmProvider adapts a *lastfm.Client to Provider.
//
// Profiles are fetched by username, the name returned from auth.getSession.
type LastfmProvider struct {
	client *lastfm.Client
}

// NewLastfmProvider wraps client.
func NewLastfmProvider(client *lastfm.Client) *LastfmProvider {
	return &LastfmProvider{client: client}
}

func (p *LastfmProvider) Enabled() bool {
	return p.client != nil && p.client.Credentials().Enabled()
}

func (p *LastfmProvider) AuthURL(callbackURL string) string {
	return p.client.Auth().GetAuthURL(callbackURL)
}

func (p *LastfmProvider) GetSession(ctx context.Context, token string) (*lastfm.Session, error) {
	defer observe("auth.getSession", time.Now())
	return p.client.Auth().GetSession(ctx, token)
}

func (p *LastfmProvider) GetProfile(ctx context.Context, session *lastfm.Session) (lastfm.Profile, error) {
	defer observe("user.getinfo", time.Now())
	return p.client.User().GetInfo(ctx, session.Username)
}

func observe(method string, start time.Time) {
	metrics.UpstreamLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
