package session

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/authbridge/go-auth-bridge/internal/utils"
	"github.com/authbridge/go-auth-bridge/provider"
)

// Controller orchestrates the three session-mutating operations against the
// identity provider. It owns no state of its own: every outcome lands in the
// Store, whose broadcast keeps the read side in agreement.
type Controller struct {
	store    *Store
	provider provider.Client
	log      zerolog.Logger
}

// ControllerOption modifies a Controller instance.
type ControllerOption func(*Controller)

// WithControllerLogger sets the controller's logger.
func WithControllerLogger(log zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.log = log
	}
}

// NewController creates a Controller with its required dependencies.
func NewController(store *Store, providerClient provider.Client, options ...ControllerOption) (*Controller, error) {
	if store == nil {
		return nil, errors.New("[NewController] store is required")
	}
	if providerClient == nil {
		return nil, errors.New("[NewController] provider client is required")
	}

	c := &Controller{
		store:    store,
		provider: providerClient,
		log:      zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// Login authenticates against the provider. On success the full session
// (tokens plus profile) is committed in a single Set. On failure the store
// is left untouched: credential failures are not transient and are never
// retried here.
func (c *Controller) Login(ctx context.Context, username, password string) (*provider.LoginResult, error) {
	result, err := c.provider.Login(ctx, username, password)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.Login]")
	}

	c.store.Set(Partial{
		AccessToken:  utils.Ptr(result.AccessToken),
		RefreshToken: utils.Ptr(result.RefreshToken),
		User:         utils.Ptr(result.Profile),
	})

	c.log.Debug().Str("username", result.Username).Msg("login succeeded")
	return result, nil
}

// Logout clears the session. Purely local: there is no server-side session
// to invalidate, so it never contacts the provider and never fails.
func (c *Controller) Logout() {
	c.store.Clear()
	c.log.Debug().Msg("logged out")
}

// Refresh exchanges the stored refresh token for a new token pair. With no
// stored token it fails immediately with ErrNoRefreshToken and issues no
// network call. A provider-confirmed rejection clears the whole session: an
// invalid refresh token leaves no partial-credential state worth keeping.
// A transport failure leaves the store untouched.
func (c *Controller) Refresh(ctx context.Context) (*provider.Credentials, error) {
	current := c.store.Get()
	if current.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	creds, err := c.provider.Refresh(ctx, current.RefreshToken)
	if err != nil {
		if errors.Is(err, provider.ErrRefreshFailed) {
			c.store.Clear()
			c.log.Debug().Msg("refresh rejected, session cleared")
		}
		return nil, errors.Wrap(err, "[Controller.Refresh]")
	}

	c.store.Set(Partial{
		AccessToken:  utils.Ptr(creds.AccessToken),
		RefreshToken: utils.Ptr(creds.RefreshToken),
	})

	c.log.Debug().Msg("tokens refreshed")
	return creds, nil
}
