package auth

import "errors"

var (
	// ErrMissingToken means the callback carried no token. No API call is made.
	ErrMissingToken = errors.New("auth: no token returned")

	// ErrUpstreamUnavailable covers every Last.fm failure: transport errors,
	// malformed responses, API errors and empty profiles.
	ErrUpstreamUnavailable = errors.New("auth: last.fm unavailable")

	// ErrProviderDisabled means the API key or secret is not configured.
	ErrProviderDisabled = errors.New("auth: last.fm provider disabled")

	// ErrInvalidState is returned when an Attempt step runs out of order.
	ErrInvalidState = errors.New("auth: invalid attempt state")
)
