package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/authbridge/go-auth-bridge/provider"
)

// DefaultUserTTL is how long a fetched profile stays fresh before
// CurrentUser is allowed to re-fetch it.
const DefaultUserTTL = 5 * time.Minute

type cacheEntry struct {
	profile   provider.Profile
	fetchedAt time.Time
}

// Queries is the read side of the session: IsAuthenticated from a fresh
// store snapshot, and CurrentUser resolved through a TTL cache keyed by the
// access token value, so a token change invalidates it naturally. It
// subscribes to the store and prunes cache entries for tokens that are no
// longer current on every broadcast.
type Queries struct {
	store    *Store
	provider provider.Client
	ttl      time.Duration
	nowTime  func() time.Time

	lock  sync.Mutex
	cache map[string]cacheEntry

	unsubscribe func()
}

// QueriesOption modifies a Queries instance.
type QueriesOption func(*Queries)

// WithUserTTL sets the freshness window for cached profiles.
func WithUserTTL(ttl time.Duration) QueriesOption {
	return func(q *Queries) {
		q.ttl = ttl
	}
}

// WithQueriesNowTime sets the now time function (primarily for testing).
func WithQueriesNowTime(nowFunc func() time.Time) QueriesOption {
	return func(q *Queries) {
		q.nowTime = nowFunc
	}
}

// NewQueries creates the read facade and subscribes it to the store.
func NewQueries(store *Store, providerClient provider.Client, options ...QueriesOption) (*Queries, error) {
	if store == nil {
		return nil, errors.New("[NewQueries] store is required")
	}
	if providerClient == nil {
		return nil, errors.New("[NewQueries] provider client is required")
	}

	q := &Queries{
		store:    store,
		provider: providerClient,
		ttl:      DefaultUserTTL,
		nowTime:  time.Now,
		cache:    make(map[string]cacheEntry),
	}

	for _, opt := range options {
		opt(q)
	}

	q.unsubscribe = store.Subscribe(q.onChange)
	return q, nil
}

// Close detaches the facade from the store's broadcast.
func (q *Queries) Close() {
	if q.unsubscribe != nil {
		q.unsubscribe()
		q.unsubscribe = nil
	}
}

// onChange drops cache entries that no longer match the current token.
// Runs synchronously inside the store's broadcast, so the facade agrees
// with the store before any mutating call returns to its caller.
func (q *Queries) onChange(snapshot Session) {
	q.lock.Lock()
	defer q.lock.Unlock()
	for token := range q.cache {
		if token != snapshot.AccessToken {
			delete(q.cache, token)
		}
	}
}

// IsAuthenticated reports whether the store currently holds an access
// token. Always computed from a fresh snapshot, never from the cache: it
// gates access-control decisions.
func (q *Queries) IsAuthenticated() bool {
	return q.store.Get().Authenticated()
}

// CurrentUser resolves the current user's profile. With no access token it
// returns (nil, nil) without touching the network. Otherwise it serves a
// cached profile younger than the TTL, or fetches from the provider and
// caches the result keyed by the token. Fetch failures surface to the
// caller without retrying; any stale cached value stays in place for the
// caller's discretion.
func (q *Queries) CurrentUser(ctx context.Context) (*provider.Profile, error) {
	token := q.store.Get().AccessToken
	if token == "" {
		return nil, nil
	}

	q.lock.Lock()
	if entry, ok := q.cache[token]; ok && q.nowTime().Sub(entry.fetchedAt) < q.ttl {
		profile := entry.profile
		q.lock.Unlock()
		return &profile, nil
	}
	q.lock.Unlock()

	profile, err := q.provider.Me(ctx, token)
	if err != nil {
		return nil, errors.Wrap(err, "[Queries.CurrentUser]")
	}

	q.lock.Lock()
	q.cache[token] = cacheEntry{profile: *profile, fetchedAt: q.nowTime()}
	q.lock.Unlock()

	return profile, nil
}
