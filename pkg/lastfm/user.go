package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// UserService provides read access to Last.fm user profiles.
type UserService struct {
	client *Client
}

// GetInfo fetches the public profile of the named user via user.getinfo.
//
// The call is keyed by username (the name returned with the session) and is
// not signed. A body without a user object yields ErrEmptyProfile.
func (s *UserService) GetInfo(ctx context.Context, username string) (Profile, error) {
	params := url.Values{}
	params.Set("user", username)

	body, err := s.client.get(ctx, "user.getinfo", params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		User Profile `json:"user"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if len(resp.User) == 0 {
		return nil, ErrEmptyProfile
	}

	return resp.User, nil
}
