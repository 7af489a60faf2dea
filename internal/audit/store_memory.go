package audit

import (
	"context"
	"slices"
	"sync"
)

// InMemoryStore keeps audit events in memory, keyed by subject pseudonym.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.Screens = slices.Clone(event.Screens)
	s.events[event.Subject] = append(s.events[event.Subject], event)
	return nil
}

// ListBySubject returns the subject's events oldest first.
func (s *InMemoryStore) ListBySubject(_ context.Context, subject string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[subject]...), nil
}

// Clear drops every stored event.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]Event)
}
