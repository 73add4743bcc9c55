package shareholder

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	id "capledger/pkg/domain"
	"capledger/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[id.ShareholderID]Account
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[id.ShareholderID]Account)}
}

func (s *InMemoryStore) Create(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return sentinel.ErrConflict
		}
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, shareholderID id.ShareholderID) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[shareholderID]
	if !ok {
		return Account{}, sentinel.ErrNotFound
	}
	return account, nil
}

func (s *InMemoryStore) FindByUserID(_ context.Context, userID id.UserID) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts {
		if account.UserID == userID {
			return account, nil
		}
	}
	return Account{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}
	slices.SortFunc(accounts, func(a, b Account) int {
		return strings.Compare(a.FullName, b.FullName)
	})
	return accounts, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, shareholderID id.ShareholderID, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[shareholderID]
	if !ok {
		return sentinel.ErrNotFound
	}
	account.Status = status
	s.accounts[shareholderID] = account
	return nil
}

// Snapshot captures current state for the in-memory transaction runner.
func (s *InMemoryStore) Snapshot() (restore func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := maps.Clone(s.accounts)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.accounts = saved
	}
}
