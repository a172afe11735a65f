package session

import (
	"sync"

	"github.com/ecocollect-dev/ecocollect/internal/api"
)

// MemStore is an in-memory Store. Used by tests and anywhere a
// process-lifetime session is enough.
type MemStore struct {
	mu    sync.Mutex
	token string
	user  *api.UserProfile
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", ErrNoSession
	}
	return s.token, nil
}

func (s *MemStore) User() (*api.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, ErrNoSession
	}
	return s.user, nil
}

func (s *MemStore) SetSession(token string, user *api.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
	return nil
}

func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	return nil
}
