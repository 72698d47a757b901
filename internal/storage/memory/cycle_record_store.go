package memory

import (
	"context"
	"sync"
	"time"

	"solana-keepalive/internal/domain"
	"solana-keepalive/internal/storage"
)

// CycleRecordStore is an in-memory implementation of storage.CycleRecordStore.
type CycleRecordStore struct {
	mu   sync.RWMutex
	data []*domain.CycleRecord
}

// NewCycleRecordStore creates a new in-memory cycle record store.
func NewCycleRecordStore() *CycleRecordStore {
	return &CycleRecordStore{
		data: make([]*domain.CycleRecord, 0),
	}
}

// Insert appends a cycle outcome record.
func (s *CycleRecordStore) Insert(_ context.Context, r *domain.CycleRecord) error {
	if r == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *r
	s.data = append(s.data, &copy)

	return nil
}

// GetByTimeRange retrieves records within [start, end), ordered by timestamp ASC.
func (s *CycleRecordStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.CycleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CycleRecord
	for _, r := range s.data {
		if !r.Timestamp.Before(start) && r.Timestamp.Before(end) {
			copy := *r
			result = append(result, &copy)
		}
	}

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.CycleRecordStore = (*CycleRecordStore)(nil)
