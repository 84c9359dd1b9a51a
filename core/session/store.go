package session

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrInvalidToken = errors.New("invalid token")

type (
	// TokenStorage persists the raw bearer token between page loads / runs.
	// An absent token means unauthenticated; Load returns ok=false then.
	TokenStorage interface {
		Load() (raw string, ok bool, err error)
		Save(raw string) error
		Clear() error
	}

	// Listener is notified after every session transition.
	// authenticated is false when the session was reset.
	Listener func(id Identity, authenticated bool)

	// Store is the single source of truth for "who is the current user".
	// Single writer (its own methods), many readers.
	Store struct {
		storage TokenStorage

		mu        sync.RWMutex
		id        Identity
		token     string
		authed    bool
		listeners []Listener
	}
)

func NewStore(storage TokenStorage) *Store {
	return &Store{storage: storage}
}

// Restore initializes the session from the persisted token, if any.
// Decode failures are not surfaced: a bad or expired token simply leaves the
// session unauthenticated.
func (s *Store) Restore() {
	raw, ok, err := s.storage.Load()
	if err != nil || !ok {
		s.reset()
		return
	}
	id, err := decodeToken(raw)
	if err != nil {
		s.reset()
		return
	}
	s.set(id, raw)
}

// Login derives the session from a freshly issued token and persists it for
// future Restore calls.
func (s *Store) Login(raw string) error {
	id, err := decodeToken(raw)
	if err != nil {
		return errors.Wrap(ErrInvalidToken, err.Error())
	}
	if err := s.storage.Save(raw); err != nil {
		return errors.Wrap(err, "persisting token")
	}
	s.set(id, raw)
	return nil
}

// Logout clears the persisted token and resets the session.
func (s *Store) Logout() {
	_ = s.storage.Clear()
	s.reset()
}

func (s *Store) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id, s.authed
}

func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authed
}

// Token returns the raw bearer token of the current session, "" when unauthenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Subscribe registers a listener for session transitions. Listeners are
// invoked synchronously, in registration order.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) set(id Identity, token string) {
	s.mu.Lock()
	s.id = id
	s.token = token
	s.authed = true
	listeners := s.listeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(id, true)
	}
}

func (s *Store) reset() {
	s.mu.Lock()
	s.id = Identity{}
	s.token = ""
	s.authed = false
	listeners := s.listeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(Identity{}, false)
	}
}
