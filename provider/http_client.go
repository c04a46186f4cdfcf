package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const defaultRequestTimeout = 10 * time.Second

// HTTPClient is the production Client implementation, speaking the
// provider's fixed JSON-over-HTTP contract:
//
//	POST {base}/auth/login   {username, password, expiresInMins}
//	GET  {base}/auth/me      Authorization: Bearer <token>
//	POST {base}/auth/refresh {refreshToken, expiresInMins}
type HTTPClient struct {
	baseURL       string
	expiryMinutes int
	httpClient    *http.Client
}

var _ Client = (*HTTPClient)(nil)

// HTTPClientOption modifies an HTTPClient instance.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient sets the underlying http.Client (primarily for testing).
func WithHTTPClient(hc *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// WithTokenExpiryMinutes sets the expiresInMins value sent on login and
// refresh requests.
func WithTokenExpiryMinutes(minutes int) HTTPClientOption {
	return func(c *HTTPClient) {
		c.expiryMinutes = minutes
	}
}

// NewHTTPClient creates a provider client for the given base URL.
func NewHTTPClient(baseURL string, options ...HTTPClientOption) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[NewHTTPClient] baseURL is required")
	}

	c := &HTTPClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		expiryMinutes: 30,
		httpClient:    &http.Client{Timeout: defaultRequestTimeout},
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

type loginRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	ExpiresInMins int    `json:"expiresInMins"`
}

type refreshRequest struct {
	RefreshToken  string `json:"refreshToken"`
	ExpiresInMins int    `json:"expiresInMins"`
}

// Login implements Client.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := loginRequest{Username: username, Password: password, ExpiresInMins: c.expiryMinutes}

	resp, err := c.postJSON(ctx, "/auth/login", body)
	if err != nil {
		return nil, errors.Wrap(ErrProviderUnreachable, err.Error())
	}
	defer resp.Body.Close()

	if !successStatus(resp.StatusCode) {
		drain(resp.Body)
		return nil, errors.Wrapf(ErrInvalidCredentials, "[HTTPClient.Login] provider returned %d", resp.StatusCode)
	}

	var result LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "[HTTPClient.Login] decoding response")
	}
	return &result, nil
}

// Me implements Client.
func (c *HTTPClient) Me(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPClient.Me] building request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrProviderUnreachable, err.Error())
	}
	defer resp.Body.Close()

	if !successStatus(resp.StatusCode) {
		drain(resp.Body)
		return nil, errors.Wrapf(ErrUnauthorized, "[HTTPClient.Me] provider returned %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, errors.Wrap(err, "[HTTPClient.Me] decoding response")
	}
	return &profile, nil
}

// Refresh implements Client.
func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	body := refreshRequest{RefreshToken: refreshToken, ExpiresInMins: c.expiryMinutes}

	resp, err := c.postJSON(ctx, "/auth/refresh", body)
	if err != nil {
		return nil, errors.Wrap(ErrProviderUnreachable, err.Error())
	}
	defer resp.Body.Close()

	if !successStatus(resp.StatusCode) {
		drain(resp.Body)
		return nil, errors.Wrapf(ErrRefreshFailed, "[HTTPClient.Refresh] provider returned %d", resp.StatusCode)
	}

	var creds Credentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return nil, errors.Wrap(err, "[HTTPClient.Refresh] decoding response")
	}
	return &creds, nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

func successStatus(code int) bool {
	return code >= 200 && code < 300
}

// drain consumes the remainder of an error response body so the underlying
// connection can be reused.
func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 4096))
}
