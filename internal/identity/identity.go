package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/jfmyers9/lastfm-auth/pkg/lastfm"
)

// Provider is the name local records use for Last.fm links.
const Provider = "lastfm"

// AccessTokenKey is the extra-data key holding the Last.fm session key.
const AccessTokenKey = "access_token"

// ErrUserNotFound is returned by user stores when no user matches.
var ErrUserNotFound = errors.New("user not found")

// FieldAlias copies profile field Source into extra data under Alias.
type FieldAlias struct {
	Source string
	Alias  string
}

// DefaultExtraData is always surfaced in addition to configured fields.
var DefaultExtraData = []FieldAlias{{Source: "id", Alias: "id"}}

// Canonical is the provider-agnostic identity produced for one login.
type Canonical struct {
	ExternalID string
	Username   string
	Email      string // Last.fm never supplies one
	FullName   string
	FirstName  string
	LastName   string
	Extra      map[string]string
}

// User is a local account linked to a Last.fm identity.
type User struct {
	ID        string
	Username  string
	Email     string
	FirstName string
	LastName  string
	FullName  string
	Provider  string
	UID       string
	Extra     map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FromProfile maps a user.getinfo profile to a Canonical identity.
//
// extra is appended to DefaultExtraData; every alias is present in the result,
// with "" for profile fields that are missing.
func FromProfile(profile lastfm.Profile, extra []FieldAlias) Canonical {
	fullName := strings.TrimSpace(profile.String("realname"))
	first, last := SplitName(fullName)

	c := Canonical{
		ExternalID: profile.String("id"),
		Username:   profile.String("name"),
		Email:      "",
		FullName:   fullName,
		FirstName:  first,
		LastName:   last,
		Extra:      make(map[string]string, len(DefaultExtraData)+len(extra)+1),
	}

	for _, f := range append(append([]FieldAlias{}, DefaultExtraData...), extra...) {
		c.Extra[f.Alias] = profile.String(f.Source)
	}

	return c
}

// SplitName splits a full name at its last space.
//
// "Richard Jones" becomes ("Richard", "Jones") and single words are returned
// as the first name. Only the trailing token is stripped, so "Anna Anna"
// yields ("Anna", "Anna").
func SplitName(fullName string) (first, last string) {
	fullName = strings.TrimSpace(fullName)
	i := strings.LastIndex(fullName, " ")
	if i < 0 {
		return fullName, ""
	}
	return strings.TrimSpace(fullName[:i]), strings.TrimSpace(fullName[i+1:])
}
