// Package rpc is the client side of the bridge's RPC channel: JSON POST
// calls with a bearer token attached per request from the session store.
//
// Client implements provider.Client, so the session controller and query
// facade run over the bridge exactly as they would against the provider
// directly.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/authbridge/go-auth-bridge/provider"
	"github.com/authbridge/go-auth-bridge/session"
)

const defaultRequestTimeout = 15 * time.Second

// TokenSource supplies the bearer token to attach to a request, or "" for
// none. It must never fail: a corrupt or absent session simply means no
// header.
type TokenSource func() string

// StoreTokenSource reads the access token from a session store, the way a
// browser client reads its persisted auth state before each call.
func StoreTokenSource(store *session.Store) TokenSource {
	return func() string {
		return store.Get().AccessToken
	}
}

// Identity is the trusted identity the bridge's session route returns.
type Identity struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Client calls the bridge server.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokenSource TokenSource
}

var _ provider.Client = (*Client)(nil)

// ClientOption modifies a Client instance.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying http.Client (primarily for testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenSource sets the per-request bearer token source.
func WithTokenSource(source TokenSource) ClientOption {
	return func(c *Client) {
		c.tokenSource = source
	}
}

// NewClient creates a bridge client for the given base URL.
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[rpc.NewClient] baseURL is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type meRequest struct {
	Token string `json:"token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Login implements provider.Client over the bridge.
func (c *Client) Login(ctx context.Context, username, password string) (*provider.LoginResult, error) {
	var result provider.LoginResult
	if err := c.call(ctx, http.MethodPost, "/rpc/auth/login", loginRequest{Username: username, Password: password}, &result); err != nil {
		return nil, errors.Wrap(err, "[rpc.Client.Login]")
	}
	return &result, nil
}

// Me implements provider.Client over the bridge.
func (c *Client) Me(ctx context.Context, accessToken string) (*provider.Profile, error) {
	var profile provider.Profile
	if err := c.call(ctx, http.MethodPost, "/rpc/auth/me", meRequest{Token: accessToken}, &profile); err != nil {
		return nil, errors.Wrap(err, "[rpc.Client.Me]")
	}
	return &profile, nil
}

// Refresh implements provider.Client over the bridge.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*provider.Credentials, error) {
	var creds provider.Credentials
	if err := c.call(ctx, http.MethodPost, "/rpc/auth/refresh", refreshRequest{RefreshToken: refreshToken}, &creds); err != nil {
		return nil, errors.Wrap(err, "[rpc.Client.Refresh]")
	}
	return &creds, nil
}

// Session calls the bridge's protected session route, which only succeeds
// when the attached bearer token validates.
func (c *Client) Session(ctx context.Context) (*Identity, error) {
	var identity Identity
	if err := c.call(ctx, http.MethodGet, "/rpc/auth/session", nil, &identity); err != nil {
		return nil, errors.Wrap(err, "[rpc.Client.Session]")
	}
	return &identity, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshalling request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling bridge")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

type errorEnvelope struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// decodeError maps the bridge's error envelope back onto the provider
// sentinels, so callers handle failures the same way over either channel.
func decodeError(resp *http.Response) error {
	var envelope errorEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&envelope); err != nil {
		return errors.Errorf("bridge returned %d", resp.StatusCode)
	}

	switch envelope.Error {
	case "invalid_credentials":
		return provider.ErrInvalidCredentials
	case "unauthorized":
		return provider.ErrUnauthorized
	case "refresh_failed":
		return provider.ErrRefreshFailed
	case "provider_unreachable":
		return provider.ErrProviderUnreachable
	default:
		return errors.Errorf("bridge returned %d: %s", resp.StatusCode, envelope.Error)
	}
}
