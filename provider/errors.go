package provider

import "errors"

var (
	// ErrInvalidCredentials - the provider rejected a username/password pair
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized - the provider rejected an access token
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRefreshFailed - the provider rejected a refresh token
	ErrRefreshFailed = errors.New("refresh failed")

	// ErrProviderUnreachable - transport-level failure before the provider
	// could accept or reject anything. Never implies the credentials are bad.
	ErrProviderUnreachable = errors.New("identity provider unreachable")
)
