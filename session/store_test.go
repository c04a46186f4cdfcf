package session_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/authbridge/go-auth-bridge/provider"
	"github.com/authbridge/go-auth-bridge/session"
)

func newMemoryStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.NewStore(session.NewMemoryBackend())
	require.NoError(t, err)
	return store
}

func strPtr(s string) *string {
	return &s
}

func TestStoreStartsLoggedOut(t *testing.T) {
	store := newMemoryStore(t)

	snapshot := store.Get()
	require.Empty(t, snapshot.AccessToken)
	require.Empty(t, snapshot.RefreshToken)
	require.Nil(t, snapshot.User)
	require.False(t, snapshot.Authenticated())
}

func TestStoreSetMergesOverCurrentSnapshot(t *testing.T) {
	store := newMemoryStore(t)

	user := provider.Profile{ID: 1, Username: "emilys", Email: "emily@x.com", FirstName: "Emily", LastName: "J"}
	store.Set(session.Partial{
		AccessToken:  strPtr("tok1"),
		RefreshToken: strPtr("ref1"),
		User:         &user,
	})

	// Token-only merge must leave the user untouched.
	store.Set(session.Partial{
		AccessToken:  strPtr("tok2"),
		RefreshToken: strPtr("ref2"),
	})

	snapshot := store.Get()
	require.Equal(t, "tok2", snapshot.AccessToken)
	require.Equal(t, "ref2", snapshot.RefreshToken)
	require.NotNil(t, snapshot.User)
	require.Equal(t, "emilys", snapshot.User.Username)
}

func TestStoreClearResetsEverything(t *testing.T) {
	store := newMemoryStore(t)

	user := provider.Profile{ID: 1, Username: "emilys"}
	store.Set(session.Partial{AccessToken: strPtr("tok1"), RefreshToken: strPtr("ref1"), User: &user})
	store.Clear()

	snapshot := store.Get()
	require.Empty(t, snapshot.AccessToken)
	require.Empty(t, snapshot.RefreshToken)
	require.Nil(t, snapshot.User)
}

func TestStorePersistsAcrossInstances(t *testing.T) {
	backend := session.NewMemoryBackend()

	first, err := session.NewStore(backend)
	require.NoError(t, err)
	user := provider.Profile{ID: 7, Username: "michaelw"}
	first.Set(session.Partial{AccessToken: strPtr("tok1"), RefreshToken: strPtr("ref1"), User: &user})

	second, err := session.NewStore(backend)
	require.NoError(t, err)

	snapshot := second.Get()
	require.Equal(t, "tok1", snapshot.AccessToken)
	require.Equal(t, "ref1", snapshot.RefreshToken)
	require.NotNil(t, snapshot.User)
	require.Equal(t, 7, snapshot.User.ID)
}

func TestStoreCorruptStateFailsOpenToLoggedOut(t *testing.T) {
	backend := session.NewMemoryBackend()
	require.NoError(t, backend.Save([]byte("{not json")))

	store, err := session.NewStore(backend)
	require.NoError(t, err)

	require.False(t, store.Get().Authenticated())
}

func TestStoreBroadcastsOncePerMutationBeforeReturn(t *testing.T) {
	store := newMemoryStore(t)

	var snapshots []session.Session
	unsubscribe := store.Subscribe(func(s session.Session) {
		snapshots = append(snapshots, s)
	})
	defer unsubscribe()

	store.Set(session.Partial{AccessToken: strPtr("tok1")})
	require.Len(t, snapshots, 1)
	require.Equal(t, "tok1", snapshots[0].AccessToken)

	store.Clear()
	require.Len(t, snapshots, 2)
	require.False(t, snapshots[1].Authenticated())
}

func TestStoreUnsubscribeStopsDelivery(t *testing.T) {
	store := newMemoryStore(t)

	calls := 0
	unsubscribe := store.Subscribe(func(session.Session) { calls++ })

	store.Set(session.Partial{AccessToken: strPtr("tok1")})
	require.Equal(t, 1, calls)

	unsubscribe()
	store.Set(session.Partial{AccessToken: strPtr("tok2")})
	require.Equal(t, 1, calls)
}

func TestStoreUnsubscribeDuringDispatchDoesNotPanic(t *testing.T) {
	store := newMemoryStore(t)

	var unsubscribeSelf func()
	unsubscribeSelf = store.Subscribe(func(session.Session) {
		unsubscribeSelf()
	})
	otherCalls := 0
	unsubscribeOther := store.Subscribe(func(session.Session) { otherCalls++ })
	defer unsubscribeOther()

	require.NotPanics(t, func() {
		store.Set(session.Partial{AccessToken: strPtr("tok1")})
	})
	require.Equal(t, 1, otherCalls)

	// The self-removing observer is gone on the next mutation.
	store.Set(session.Partial{AccessToken: strPtr("tok2")})
	require.Equal(t, 2, otherCalls)
}

func TestFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "auth_state.json")
	backend := session.NewFileBackend(path)

	// Nothing stored yet.
	data, err := backend.Load()
	require.NoError(t, err)
	require.Nil(t, data)

	require.NoError(t, backend.Save([]byte(`{"accessToken":"tok1"}`)))
	data, err = backend.Load()
	require.NoError(t, err)
	require.JSONEq(t, `{"accessToken":"tok1"}`, string(data))

	require.NoError(t, backend.Delete())
	data, err = backend.Load()
	require.NoError(t, err)
	require.Nil(t, data)

	// Deleting twice is fine.
	require.NoError(t, backend.Delete())
}

func TestFileBackendCorruptFileFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth_state.json")
	backend := session.NewFileBackend(path)
	require.NoError(t, backend.Save([]byte("garbage")))

	store, err := session.NewStore(backend)
	require.NoError(t, err)
	require.False(t, store.Get().Authenticated())
}
