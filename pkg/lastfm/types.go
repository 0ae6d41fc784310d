package lastfm

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Session represents an authenticated session from auth.getSession.
type Session struct {
	Key        string // Session key for authenticated requests
	Username   string // Last.fm username
	Subscriber bool   // Whether user is a subscriber
}

// Profile is the user object returned by user.getinfo, decoded as-is.
//
// Typical keys are id, name, realname, url, country, age, gender, subscriber,
// playcount, playlists, image (a list of {"#text", "size"} objects) and
// registered ({"#text", "unixtime"}). Last.fm is inconsistent about quoting
// numbers, so callers should read values through String.
type Profile map[string]any

// String returns the value stored under key rendered as a string.
//
// Missing keys and JSON nulls yield "". Numbers are formatted without an
// exponent and nested objects or lists are re-encoded as JSON.
func (p Profile) String(key string) string {
	v, ok := p[key]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// flexBool decodes Last.fm flags that arrive as 0/1, "0"/"1" or true/false.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	switch s {
	case "1", "true":
		*b = true
	default:
		*b = false
	}
	return nil
}
