package storage

import (
	"context"
	"time"

	"solana-keepalive/internal/domain"
)

// SpendEventStore provides access to spend_events storage.
// The store is append-only: the spend guard reconstructs the trailing
// window by querying GetSince, so a restart never forgets recent spends
// when a durable implementation is used.
type SpendEventStore interface {
	// Insert appends a new spend event.
	Insert(ctx context.Context, e *domain.SpendEvent) error

	// GetSince retrieves events with Timestamp >= since, ordered by timestamp ASC.
	GetSince(ctx context.Context, since time.Time) ([]*domain.SpendEvent, error)
}

// CycleRecordStore provides access to keep-alive cycle history.
type CycleRecordStore interface {
	// Insert appends a cycle outcome record.
	Insert(ctx context.Context, r *domain.CycleRecord) error

	// GetByTimeRange retrieves records within [start, end), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.CycleRecord, error)
}
