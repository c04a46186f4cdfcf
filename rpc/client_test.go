package rpc_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/authbridge/go-auth-bridge/internal/config"
	"github.com/authbridge/go-auth-bridge/provider"
	"github.com/authbridge/go-auth-bridge/provider/providerfake"
	"github.com/authbridge/go-auth-bridge/rpc"
	"github.com/authbridge/go-auth-bridge/server"
	"github.com/authbridge/go-auth-bridge/session"
)

// bridgeFixture wires the full client stack against a real bridge server
// backed by a fake provider: store -> rpc channel -> server -> provider.
type bridgeFixture struct {
	provider   *providerfake.FakeProvider
	store      *session.Store
	client     *rpc.Client
	controller *session.Controller
}

func setupBridgeFixture(t *testing.T) *bridgeFixture {
	t.Helper()

	fake := providerfake.NewFakeProvider()
	fake.AddUser(provider.Identity{
		Profile: provider.Profile{ID: 1, Username: "emilys", Email: "emily@x.com", FirstName: "Emily", LastName: "J"},
	}, "emilyspass")

	cfg := config.EnvVars{Env: "TEST", AllowedOrigins: []string{"*"}}
	srv, err := server.New(cfg, fake)
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	store, err := session.NewStore(session.NewMemoryBackend())
	require.NoError(t, err)

	client, err := rpc.NewClient(ts.URL, rpc.WithTokenSource(rpc.StoreTokenSource(store)))
	require.NoError(t, err)

	controller, err := session.NewController(store, client)
	require.NoError(t, err)

	return &bridgeFixture{provider: fake, store: store, client: client, controller: controller}
}

func TestLoginOverBridgePopulatesSession(t *testing.T) {
	f := setupBridgeFixture(t)

	result, err := f.controller.Login(context.Background(), "emilys", "emilyspass")
	require.NoError(t, err)

	snapshot := f.store.Get()
	require.Equal(t, result.AccessToken, snapshot.AccessToken)
	require.NotNil(t, snapshot.User)
	require.Equal(t, "emilys", snapshot.User.Username)
}

func TestLoginOverBridgeMapsInvalidCredentials(t *testing.T) {
	f := setupBridgeFixture(t)

	_, err := f.controller.Login(context.Background(), "emilys", "wrong")
	require.ErrorIs(t, err, provider.ErrInvalidCredentials)
	require.False(t, f.store.Get().Authenticated())
}

func TestSessionRouteUsesStoredBearerToken(t *testing.T) {
	f := setupBridgeFixture(t)

	// Logged out: no Authorization header is attached, so the middleware
	// rejects before reaching the provider.
	_, err := f.client.Session(context.Background())
	require.ErrorIs(t, err, provider.ErrUnauthorized)

	_, err = f.controller.Login(context.Background(), "emilys", "emilyspass")
	require.NoError(t, err)

	identity, err := f.client.Session(context.Background())
	require.NoError(t, err)
	require.Equal(t, &rpc.Identity{ID: 1, Username: "emilys", Email: "emily@x.com"}, identity)

	f.controller.Logout()
	_, err = f.client.Session(context.Background())
	require.ErrorIs(t, err, provider.ErrUnauthorized)
}

func TestRefreshOverBridge(t *testing.T) {
	f := setupBridgeFixture(t)

	result, err := f.controller.Login(context.Background(), "emilys", "emilyspass")
	require.NoError(t, err)

	creds, err := f.controller.Refresh(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, result.AccessToken, creds.AccessToken)
	require.Equal(t, creds.AccessToken, f.store.Get().AccessToken)
}

func TestRefreshRejectionOverBridgeClearsSession(t *testing.T) {
	f := setupBridgeFixture(t)

	result, err := f.controller.Login(context.Background(), "emilys", "emilyspass")
	require.NoError(t, err)

	f.provider.RevokeRefreshToken(result.RefreshToken)

	_, err = f.controller.Refresh(context.Background())
	require.ErrorIs(t, err, provider.ErrRefreshFailed)
	require.False(t, f.store.Get().Authenticated())
}

func TestMeOverBridge(t *testing.T) {
	f := setupBridgeFixture(t)

	result, err := f.controller.Login(context.Background(), "emilys", "emilyspass")
	require.NoError(t, err)

	profile, err := f.client.Me(context.Background(), result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "emilys", profile.Username)

	_, err = f.client.Me(context.Background(), "garbage")
	require.ErrorIs(t, err, provider.ErrUnauthorized)
}
