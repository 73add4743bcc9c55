package auth

import (
	"context"
	"maps"
	"strings"
	"sync"

	id "capledger/pkg/domain"
	"capledger/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	users map[id.UserID]User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[id.UserID]User)}
}

func (s *InMemoryStore) Create(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return sentinel.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return User{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return User{}, sentinel.ErrNotFound
	}
	return user, nil
}

// Snapshot captures current state for the in-memory transaction runner.
func (s *InMemoryStore) Snapshot() (restore func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := maps.Clone(s.users)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.users = saved
	}
}
