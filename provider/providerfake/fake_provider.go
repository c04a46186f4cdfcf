// Package providerfake provides an in-memory provider.Client for tests.
package providerfake

import (
	"context"
	"fmt"
	"sync"

	"github.com/authbridge/go-auth-bridge/provider"
)

var _ provider.Client = (*FakeProvider)(nil)

// FakeProvider is an in-memory identity provider. Register accounts up
// front; issued tokens are deterministic and tracked so tests can assert on
// exactly which calls hit the "network".
type FakeProvider struct {
	lock          sync.RWMutex
	accounts      map[string]account          // username -> account
	accessTokens  map[string]provider.Profile // access token -> profile
	refreshTokens map[string]string           // refresh token -> username
	issued        int

	// Unreachable makes every call fail with ErrProviderUnreachable,
	// simulating a transport failure.
	Unreachable bool

	LoginCalls   int
	MeCalls      int
	RefreshCalls int
}

type account struct {
	password string
	identity provider.Identity
}

// NewFakeProvider creates an empty fake provider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		accounts:      make(map[string]account),
		accessTokens:  make(map[string]provider.Profile),
		refreshTokens: make(map[string]string),
	}
}

// AddUser registers an account that can log in with the given password.
func (f *FakeProvider) AddUser(identity provider.Identity, password string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.accounts[identity.Username] = account{password: password, identity: identity}
}

// IssueToken registers a pre-existing valid access token for a profile,
// as if a login had happened elsewhere.
func (f *FakeProvider) IssueToken(token string, profile provider.Profile) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.accessTokens[token] = profile
}

// Login implements provider.Client.
func (f *FakeProvider) Login(ctx context.Context, username, password string) (*provider.LoginResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.LoginCalls++

	if f.Unreachable {
		return nil, provider.ErrProviderUnreachable
	}

	acct, ok := f.accounts[username]
	if !ok || acct.password != password {
		return nil, provider.ErrInvalidCredentials
	}

	creds := f.mintLocked(username, acct.identity.Profile)
	return &provider.LoginResult{Identity: acct.identity, Credentials: creds}, nil
}

// Me implements provider.Client.
func (f *FakeProvider) Me(ctx context.Context, accessToken string) (*provider.Profile, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.MeCalls++

	if f.Unreachable {
		return nil, provider.ErrProviderUnreachable
	}

	profile, ok := f.accessTokens[accessToken]
	if !ok {
		return nil, provider.ErrUnauthorized
	}
	return &profile, nil
}

// Refresh implements provider.Client.
func (f *FakeProvider) Refresh(ctx context.Context, refreshToken string) (*provider.Credentials, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.RefreshCalls++

	if f.Unreachable {
		return nil, provider.ErrProviderUnreachable
	}

	username, ok := f.refreshTokens[refreshToken]
	if !ok {
		return nil, provider.ErrRefreshFailed
	}
	delete(f.refreshTokens, refreshToken)

	acct := f.accounts[username]
	creds := f.mintLocked(username, acct.identity.Profile)
	return &creds, nil
}

// RevokeRefreshToken invalidates a previously minted refresh token so the
// next Refresh with it fails.
func (f *FakeProvider) RevokeRefreshToken(refreshToken string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	delete(f.refreshTokens, refreshToken)
}

func (f *FakeProvider) mintLocked(username string, profile provider.Profile) provider.Credentials {
	f.issued++
	creds := provider.Credentials{
		AccessToken:  fmt.Sprintf("access-%s-%d", username, f.issued),
		RefreshToken: fmt.Sprintf("refresh-%s-%d", username, f.issued),
	}
	f.accessTokens[creds.AccessToken] = profile
	f.refreshTokens[creds.RefreshToken] = username
	return creds
}
