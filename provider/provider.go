// Package provider talks to the external identity provider. The provider is
// the sole authority for credentials and tokens: this package never inspects
// token contents, it only carries them.
package provider

import "context"

// Profile is the identity subset returned by the provider's "who am I"
// endpoint and attached to authenticated requests.
type Profile struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Identity is the full profile returned on login.
type Identity struct {
	Profile
	Gender string `json:"gender"`
	Image  string `json:"image"`
}

// Credentials is an access/refresh token pair. Both are opaque strings
// minted by the provider.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is the provider's login response: the authenticated identity
// plus a fresh token pair.
type LoginResult struct {
	Identity
	Credentials
}

// Client defines the three provider operations the bridge depends on.
type Client interface {
	// Login exchanges credentials for an identity and a token pair.
	// A provider rejection surfaces ErrInvalidCredentials.
	Login(ctx context.Context, username, password string) (*LoginResult, error)

	// Me resolves an access token to its profile.
	// A provider rejection surfaces ErrUnauthorized.
	Me(ctx context.Context, accessToken string) (*Profile, error)

	// Refresh exchanges a refresh token for a new token pair.
	// A provider rejection surfaces ErrRefreshFailed.
	Refresh(ctx context.Context, refreshToken string) (*Credentials, error)
}
