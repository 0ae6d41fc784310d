// Package lastfm provides a client library for the Last.fm API 2.0 web
// authentication flow.
//
// # Overview
//
// This package implements the parts of the Last.fm API a web application
// needs to delegate login to Last.fm: building the authorization redirect,
// exchanging the returned request token for a session key, and fetching the
// authenticated user's profile. Calls use the JSON flavour of the API.
//
// # Quick Start
//
// First, create a client with your API credentials:
//
//	import "github.com/jfmyers9/lastfm-auth/pkg/lastfm"
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey:    "your-api-key",
//	    APISecret: "your-api-secret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Authentication
//
// Last.fm web authentication works in three steps:
//
//  1. Redirect the user to the authorization page
//  2. Receive the request token on your callback URL
//  3. Exchange the token for a session key and username
//
// Example:
//
//	// Step 1: redirect
//	http.Redirect(w, r, client.Auth().GetAuthURL(callbackURL), http.StatusFound)
//
//	// Step 2 and 3, in the callback handler
//	session, err := client.Auth().GetSession(r.Context(), r.URL.Query().Get("token"))
//	if err != nil {
//	    // no session
//	}
//
//	profile, err := client.User().GetInfo(r.Context(), session.Username)
//
// # Signatures
//
// Sign computes the api_sig Last.fm expects for token-bearing calls. It is
// exported so hosts can verify or reproduce signatures in tests.
//
// # Error Handling
//
// Failures are returned, never retried:
//
//	session, err := client.Auth().GetSession(ctx, token)
//	switch {
//	case errors.Is(err, lastfm.ErrTransport):
//	    // network, TLS or HTTP status failure
//	case errors.Is(err, lastfm.ErrMalformedResponse):
//	    // unparseable body or missing fields
//	}
//
//	var lastfmErr *lastfm.Error
//	if errors.As(err, &lastfmErr) && lastfmErr.Code == lastfm.ErrCodeUnauthorizedToken {
//	    // the user never granted access
//	}
//
// # Context Support
//
// All API methods accept a context.Context for cancellation. The default HTTP
// client additionally enforces DefaultTimeout per call.
//
// # Last.fm API Documentation
//
// For more information about the Last.fm API:
// https://www.last.fm/api/webauth
package lastfm
