package memory

import (
	"context"
	"sync"
	"time"

	"solana-keepalive/internal/domain"
	"solana-keepalive/internal/storage"
)

// SpendEventStore is an in-memory implementation of storage.SpendEventStore.
// Events are lost on process restart; use the postgres implementation for
// durable spend accounting.
type SpendEventStore struct {
	mu   sync.RWMutex
	data []*domain.SpendEvent
}

// NewSpendEventStore creates a new in-memory spend event store.
func NewSpendEventStore() *SpendEventStore {
	return &SpendEventStore{
		data: make([]*domain.SpendEvent, 0),
	}
}

// Insert appends a new spend event.
func (s *SpendEventStore) Insert(_ context.Context, e *domain.SpendEvent) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy
	copy := *e
	s.data = append(s.data, &copy)

	return nil
}

// GetSince retrieves events with Timestamp >= since, ordered by timestamp ASC.
// Events are always appended "now", so insertion order is timestamp order.
func (s *SpendEventStore) GetSince(_ context.Context, since time.Time) ([]*domain.SpendEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SpendEvent
	for _, e := range s.data {
		if !e.Timestamp.Before(since) {
			copy := *e
			result = append(result, &copy)
		}
	}

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.SpendEventStore = (*SpendEventStore)(nil)
