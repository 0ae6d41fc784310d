package auth

import (
	"context"
	"net/url"
)

// State is the position of an Attempt in the login flow.
type State int

const (
	StateAwaitingRedirect State = iota
	StateAwaitingCallback
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingRedirect:
		return "awaiting_redirect"
	case StateAwaitingCallback:
		return "awaiting_callback"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Attempt is a single login. It moves AwaitingRedirect -> AwaitingCallback ->
// Completed or Failed and is not safe for concurrent use.
type Attempt struct {
	c     *Coordinator
	state State
}

// NewAttempt starts a login that still needs its authorization redirect.
func (c *Coordinator) NewAttempt() *Attempt {
	return &Attempt{c: c, state: StateAwaitingRedirect}
}

// Resume returns an attempt whose redirect already happened.
func (c *Coordinator) Resume() *Attempt {
	return &Attempt{c: c, state: StateAwaitingCallback}
}

// State returns the current state.
func (a *Attempt) State() State {
	return a.state
}

// AuthorizationURL returns the Last.fm redirect and moves the attempt to
// AwaitingCallback.
func (a *Attempt) AuthorizationURL(callbackURL string) (string, error) {
	if a.state != StateAwaitingRedirect {
		return "", ErrInvalidState
	}
	if !a.c.provider.Enabled() {
		a.state = StateFailed
		return "", ErrProviderDisabled
	}

	a.state = StateAwaitingCallback
	return a.c.provider.AuthURL(callbackURL), nil
}

// Complete consumes the callback parameters and finishes the attempt.
func (a *Attempt) Complete(ctx context.Context, params url.Values) (*Outcome, error) {
	if a.state != StateAwaitingCallback {
		return nil, ErrInvalidState
	}

	outcome, err := a.c.complete(ctx, params)
	if err != nil {
		a.state = StateFailed
		return nil, err
	}

	a.state = StateCompleted
	return outcome, nil
}
