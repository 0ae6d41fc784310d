package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// apiError is the JSON error document Last.fm returns in place of a result.
type apiError struct {
	Code    *int   `json:"error"`
	Message string `json:"message"`
}

// maxBodySize caps how much of a response is read. Profiles are a few KB.
const maxBodySize = 1 << 20

// get makes a single GET request to the Last.fm JSON API.
//
// It handles:
// - Query construction (method, api_key, format=json plus params)
// - Response reading with a size cap
// - Last.fm JSON error documents, returned as *Error
// - Context cancellation
//
// There is no retry: the request token consumed by auth.getSession is
// single-use and a replay after a partial success would fail the flow.
func (c *Client) get(ctx context.Context, method string, params url.Values) ([]byte, error) {
	query := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	query.Set("method", method)
	query.Set("api_key", c.creds.APIKey)
	query.Set("format", "json")

	endpoint := c.baseURL + "?" + query.Encode()

	c.logDebugf("lastfm: calling %s", method)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "lastfm-auth/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}

	// Last.fm reports API errors as {"error": N, "message": "..."}, sometimes
	// with a 4xx status, so look for that document before judging the status.
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != nil {
		lastfmErr := &Error{Code: *apiErr.Code, Message: apiErr.Message}
		c.logDebugf("lastfm: %s failed: %v", method, lastfmErr)
		return nil, lastfmErr
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrTransport, resp.StatusCode)
	}

	c.logDebugf("lastfm: %s succeeded", method)
	return body, nil
}
