package session

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Store is the single shared holder of the current Session. All mutation
// goes through Set/Clear, which commit the new snapshot, write it through to
// the backend, and broadcast it to every subscriber before returning.
//
// Concurrent Set/Clear calls are last-writer-wins on the persisted snapshot.
type Store struct {
	backend Backend
	log     zerolog.Logger

	lock      sync.Mutex
	current   Session
	observers map[int]func(Session)
	nextID    int
}

// StoreOption modifies a Store instance.
type StoreOption func(*Store)

// WithLogger sets the logger used for backend failures.
func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore creates a Store over the given backend, loading any previously
// persisted session. Corrupt or unreadable persisted data is treated as no
// session: the store fails open to the logged-out state.
func NewStore(backend Backend, options ...StoreOption) (*Store, error) {
	if backend == nil {
		return nil, errors.New("[NewStore] backend is required")
	}

	s := &Store{
		backend:   backend,
		log:       zerolog.Nop(),
		observers: make(map[int]func(Session)),
	}

	for _, opt := range options {
		opt(s)
	}

	s.current = s.loadInitial()
	return s, nil
}

func (s *Store) loadInitial() Session {
	data, err := s.backend.Load()
	if err != nil {
		s.log.Debug().Err(err).Msg("session load failed, starting logged out")
		return Session{}
	}
	if len(data) == 0 {
		return Session{}
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.log.Debug().Err(err).Msg("corrupt session state, starting logged out")
		return Session{}
	}
	return sess
}

// Get returns the current session snapshot. Never fails.
func (s *Store) Get() Session {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.current
}

// Set merges the given fields over the current snapshot, persists the
// result, and broadcasts the new snapshot to all subscribers before
// returning.
func (s *Store) Set(partial Partial) {
	s.lock.Lock()
	next := partial.applyTo(s.current)
	s.current = next

	data, err := json.Marshal(next)
	if err == nil {
		err = s.backend.Save(data)
	}
	if err != nil {
		// The in-memory snapshot stays authoritative for this process;
		// only restart durability is lost.
		s.log.Warn().Err(err).Msg("failed to persist session state")
	}

	fns := s.observerListLocked()
	s.lock.Unlock()

	dispatch(fns, next)
}

// Clear resets the session to the logged-out state, removes the persisted
// entry, and broadcasts the cleared snapshot.
func (s *Store) Clear() {
	s.lock.Lock()
	s.current = Session{}

	if err := s.backend.Delete(); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete persisted session state")
	}

	fns := s.observerListLocked()
	s.lock.Unlock()

	dispatch(fns, Session{})
}

// Subscribe registers an observer for session changes and returns its
// unsubscribe function. Observers may unsubscribe at any time, including
// from inside a dispatch.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.lock.Lock()
	defer s.lock.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = fn

	return func() {
		s.lock.Lock()
		defer s.lock.Unlock()
		delete(s.observers, id)
	}
}

// observerListLocked snapshots the observer set so dispatch runs outside the
// lock and deregistration mid-dispatch cannot corrupt iteration.
func (s *Store) observerListLocked() []func(Session) {
	fns := make([]func(Session), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	return fns
}

func dispatch(fns []func(Session), snapshot Session) {
	for _, fn := range fns {
		fn(snapshot)
	}
}
