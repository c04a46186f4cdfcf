package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/authbridge/go-auth-bridge/provider"
	"github.com/authbridge/go-auth-bridge/provider/providerfake"
	"github.com/authbridge/go-auth-bridge/session"
)

type controllerFixture struct {
	store      *session.Store
	provider   *providerfake.FakeProvider
	controller *session.Controller
}

func setupControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()

	store := newMemoryStore(t)
	fake := providerfake.NewFakeProvider()
	fake.AddUser(provider.Identity{
		Profile: provider.Profile{ID: 1, Username: "emilys", Email: "emily@x.com", FirstName: "Emily", LastName: "J"},
		Gender:  "female",
	}, "emilyspass")

	controller, err := session.NewController(store, fake)
	require.NoError(t, err)

	return &controllerFixture{store: store, provider: fake, controller: controller}
}

func (f *controllerFixture) login(t *testing.T) *provider.LoginResult {
	t.Helper()
	result, err := f.controller.Login(context.Background(), "emilys", "emilyspass")
	require.NoError(t, err)
	return result
}

func TestNewControllerRequiresDependencies(t *testing.T) {
	store := newMemoryStore(t)

	_, err := session.NewController(nil, providerfake.NewFakeProvider())
	require.Error(t, err)

	_, err = session.NewController(store, nil)
	require.Error(t, err)
}

func TestLoginSuccessPopulatesWholeSession(t *testing.T) {
	f := setupControllerFixture(t)

	result := f.login(t)

	snapshot := f.store.Get()
	require.Equal(t, result.AccessToken, snapshot.AccessToken)
	require.Equal(t, result.RefreshToken, snapshot.RefreshToken)
	require.NotNil(t, snapshot.User)
	require.Equal(t, provider.Profile{ID: 1, Username: "emilys", Email: "emily@x.com", FirstName: "Emily", LastName: "J"}, *snapshot.User)
	require.True(t, snapshot.Authenticated())
}

func TestLoginFailureLeavesStoreUntouched(t *testing.T) {
	f := setupControllerFixture(t)
	before := f.store.Get()

	_, err := f.controller.Login(context.Background(), "emilys", "wrong-password")
	require.ErrorIs(t, err, provider.ErrInvalidCredentials)
	require.Equal(t, before, f.store.Get())
}

func TestLoginTransportFailureLeavesStoreUntouched(t *testing.T) {
	f := setupControllerFixture(t)
	f.login(t)
	before := f.store.Get()

	f.provider.Unreachable = true
	_, err := f.controller.Login(context.Background(), "emilys", "emilyspass")
	require.ErrorIs(t, err, provider.ErrProviderUnreachable)
	require.Equal(t, before, f.store.Get())
}

func TestLogoutClearsWithoutNetwork(t *testing.T) {
	f := setupControllerFixture(t)
	f.login(t)
	callsBefore := f.provider.LoginCalls + f.provider.MeCalls + f.provider.RefreshCalls

	f.controller.Logout()

	require.False(t, f.store.Get().Authenticated())
	require.Equal(t, callsBefore, f.provider.LoginCalls+f.provider.MeCalls+f.provider.RefreshCalls)
}

func TestRefreshWithoutTokenFailsLocally(t *testing.T) {
	f := setupControllerFixture(t)

	_, err := f.controller.Refresh(context.Background())
	require.ErrorIs(t, err, session.ErrNoRefreshToken)
	require.Zero(t, f.provider.RefreshCalls)
}

func TestRefreshSuccessReplacesTokensOnly(t *testing.T) {
	f := setupControllerFixture(t)
	result := f.login(t)

	creds, err := f.controller.Refresh(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, result.AccessToken, creds.AccessToken)

	snapshot := f.store.Get()
	require.Equal(t, creds.AccessToken, snapshot.AccessToken)
	require.Equal(t, creds.RefreshToken, snapshot.RefreshToken)
	require.NotNil(t, snapshot.User)
	require.Equal(t, "emilys", snapshot.User.Username)
}

func TestRefreshRejectionClearsWholeSession(t *testing.T) {
	f := setupControllerFixture(t)
	result := f.login(t)

	f.provider.RevokeRefreshToken(result.RefreshToken)

	_, err := f.controller.Refresh(context.Background())
	require.ErrorIs(t, err, provider.ErrRefreshFailed)

	snapshot := f.store.Get()
	require.Empty(t, snapshot.AccessToken)
	require.Empty(t, snapshot.RefreshToken)
	require.Nil(t, snapshot.User)
}

func TestRefreshTransportFailureKeepsSession(t *testing.T) {
	f := setupControllerFixture(t)
	f.login(t)
	before := f.store.Get()

	f.provider.Unreachable = true
	_, err := f.controller.Refresh(context.Background())
	require.ErrorIs(t, err, provider.ErrProviderUnreachable)

	// A transient network blip must not log the user out.
	require.Equal(t, before, f.store.Get())
}

func TestMutationsBroadcastBeforeReturning(t *testing.T) {
	f := setupControllerFixture(t)

	var seen []session.Session
	unsubscribe := f.store.Subscribe(func(s session.Session) { seen = append(seen, s) })
	defer unsubscribe()

	f.login(t)
	require.Len(t, seen, 1)
	require.True(t, seen[0].Authenticated())

	_, err := f.controller.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, seen, 2)

	f.controller.Logout()
	require.Len(t, seen, 3)
	require.False(t, seen[2].Authenticated())
}
