package session

import "errors"

var (
	// ErrNoRefreshToken - refresh requested with nothing to refresh.
	// Raised locally, before any provider call.
	ErrNoRefreshToken = errors.New("no refresh token")
)
