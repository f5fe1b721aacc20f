package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opspulse/opspulse/internal/model"
)

// MemoryStore keeps the event log in process memory. Useful for tests and
// for serve mode without persistence.
type MemoryStore struct {
	mu        sync.RWMutex
	events    []model.Event
	retention int
}

// NewMemoryStore creates an empty in-memory store with the default retention cap.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{retention: DefaultRetention}
}

// NewMemoryStoreWithRetention creates an in-memory store with a custom cap.
func NewMemoryStoreWithRetention(retention int) *MemoryStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryStore{retention: retention}
}

// Append implements EventStore.
func (s *MemoryStore) Append(_ context.Context, e model.Event) error {
	e.ID = uuid.NewString()
	e.Timestamp = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, e)
	if excess := len(s.events) - s.retention; excess > 0 {
		s.events = append([]model.Event(nil), s.events[excess:]...)
	}
	return nil
}

// LoadAll implements EventStore.
func (s *MemoryStore) LoadAll(_ context.Context) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Clear implements EventStore.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	return nil
}

// seed appends a pre-built event verbatim, keeping its ID and timestamp.
// Test helper shared by the file store loader.
func (s *MemoryStore) seed(e model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	if excess := len(s.events) - s.retention; excess > 0 {
		s.events = append([]model.Event(nil), s.events[excess:]...)
	}
}

// Seed appends pre-built events verbatim, preserving IDs and timestamps.
// Intended for demo data generation and tests.
func (s *MemoryStore) Seed(events ...model.Event) {
	for _, e := range events {
		s.seed(e)
	}
}
