package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps events in insertion order. Used by unit tests and local
// development; the postgres store is the durable implementation.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Insertion order is oldest-first; walk backwards for newest-first.
	matched := make([]Event, 0, filter.Limit)
	for i := len(s.events) - 1; i >= 0; i-- {
		event := s.events[i]
		if filter.ActorID != nil && (event.ActorID == nil || *event.ActorID != *filter.ActorID) {
			continue
		}
		if filter.Type != "" && event.Type != filter.Type {
			continue
		}
		matched = append(matched, event)
		if filter.Limit > 0 && len(matched) == filter.Limit {
			break
		}
	}
	return matched, nil
}

// Snapshot captures the current event log and returns a restore function, so
// the in-memory transaction runner can roll back appends.
func (s *InMemoryStore) Snapshot() (restore func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := len(s.events)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = s.events[:saved]
	}
}
