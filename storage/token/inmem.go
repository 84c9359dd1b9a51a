package tokenstore

import (
	"sync"

	"github.com/trezcool/darasa/core/session"
)

// InMemStorage holds the token in memory only; used in tests and for
// ephemeral sessions.
type InMemStorage struct {
	mu  sync.Mutex
	raw string
	set bool
}

var _ session.TokenStorage = (*InMemStorage)(nil)

func NewInMemStorage(raw ...string) *InMemStorage {
	s := new(InMemStorage)
	if len(raw) > 0 {
		s.raw = raw[0]
		s.set = true
	}
	return s
}

func (s *InMemStorage) Load() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw, s.set, nil
}

func (s *InMemStorage) Save(raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw, s.set = raw, true
	return nil
}

func (s *InMemStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw, s.set = "", false
	return nil
}
