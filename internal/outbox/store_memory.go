package outbox

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps unpublished outbox rows in process. Used when no
// database is configured and in tests. Rows are dropped once published.
type InMemoryStore struct {
	mu        sync.Mutex
	events    []Event
	published int
	// processing serialises ProcessBatch so two workers never publish the
	// same row.
	processing sync.Mutex
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

// ProcessBatch hands the oldest limit events to fn and drops them when fn
// succeeds. Append only ever adds to the tail, so the head of the slice is
// still the batch afterwards.
func (s *InMemoryStore) ProcessBatch(ctx context.Context, limit int, _ time.Time, fn func(ctx context.Context, events []Event) error) (int, error) {
	s.processing.Lock()
	defer s.processing.Unlock()

	s.mu.Lock()
	n := min(limit, len(s.events))
	batch := append([]Event(nil), s.events[:n]...)
	s.mu.Unlock()

	if n == 0 {
		return 0, nil
	}
	if err := fn(ctx, batch); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.events[:n])
	s.events = s.events[n:]
	s.published += n
	return n, nil
}

// All returns a copy of every event not yet published.
func (s *InMemoryStore) All() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event{}, s.events...)
}

// Pending counts unpublished events.
func (s *InMemoryStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Published counts events handed off since the store was created.
func (s *InMemoryStore) Published() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published
}
