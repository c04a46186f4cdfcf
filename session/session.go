// Package session holds the client side of the bridge: the persisted
// session state, its change broadcast, the login/logout/refresh controller,
// and the cached read facade.
package session

import "github.com/authbridge/go-auth-bridge/provider"

// StorageKey is the single key the session is persisted under. File-backed
// storage derives its default file name from it.
const StorageKey = "auth_state"

// Session is the client-held authentication state. The zero value is the
// logged-out state.
type Session struct {
	AccessToken  string            `json:"accessToken,omitempty"`
	RefreshToken string            `json:"refreshToken,omitempty"`
	User         *provider.Profile `json:"user,omitempty"`
}

// Authenticated reports whether the session holds an access token. The
// token is opaque: presence is the only thing the client can check.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// Partial is a set of session fields to merge over the current snapshot.
// Nil fields are left untouched; User is only ever populated by a login
// (Clear is the sole path that removes it).
type Partial struct {
	AccessToken  *string
	RefreshToken *string
	User         *provider.Profile
}

func (p Partial) applyTo(s Session) Session {
	if p.AccessToken != nil {
		s.AccessToken = *p.AccessToken
	}
	if p.RefreshToken != nil {
		s.RefreshToken = *p.RefreshToken
	}
	if p.User != nil {
		user := *p.User
		s.User = &user
	}
	return s
}
