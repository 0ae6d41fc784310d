package lastfm

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// Sign computes the api_sig for a token-bearing call such as auth.getSession.
//
// Last.fm verifies the MD5 of "api_key<key>method<method>token<token><secret>".
// The digest is mandated by the API and must match byte for byte, so no
// percent-encoding or separators are applied.
func Sign(method, token string, creds Credentials) string {
	return calculateSignature(map[string]string{
		"api_key": creds.APIKey,
		"method":  method,
		"token":   token,
	}, creds.APISecret)
}

// calculateSignature generates an MD5 signature for Last.fm API requests.
//
// The signature is calculated by:
// 1. Sorting parameter keys alphabetically
// 2. Concatenating key+value pairs (e.g., "keyAvalueAkeyBvalueB")
// 3. Appending the API secret
// 4. Taking the MD5 hash of the result
//
// The format and callback parameters are never part of a signature.
func calculateSignature(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "format" || k == "callback" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sigPlain strings.Builder
	for _, k := range keys {
		sigPlain.WriteString(k)
		sigPlain.WriteString(params[k])
	}
	sigPlain.WriteString(secret)

	sum := md5.Sum([]byte(sigPlain.String()))
	return hex.EncodeToString(sum[:])
}
