package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"solana-keepalive/internal/domain"
	"solana-keepalive/internal/storage"
)

// SpendEventStore implements storage.SpendEventStore using PostgreSQL.
// It backs the spend guard with a durable trailing-window ledger, so a
// process restart does not reset the daily budget.
type SpendEventStore struct {
	pool *Pool
}

// NewSpendEventStore creates a new SpendEventStore.
func NewSpendEventStore(pool *Pool) *SpendEventStore {
	return &SpendEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SpendEventStore = (*SpendEventStore)(nil)

// Insert appends a new spend event.
func (s *SpendEventStore) Insert(ctx context.Context, e *domain.SpendEvent) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO spend_events (timestamp, amount_usd)
		VALUES ($1, $2::numeric)
	`

	_, err := s.pool.Exec(ctx, query, e.Timestamp.UTC(), e.AmountUSD.String())
	if err != nil {
		return fmt.Errorf("insert spend event: %w", err)
	}
	return nil
}

// GetSince retrieves events with Timestamp >= since, ordered by timestamp ASC.
func (s *SpendEventStore) GetSince(ctx context.Context, since time.Time) ([]*domain.SpendEvent, error) {
	query := `
		SELECT timestamp, amount_usd::text
		FROM spend_events
		WHERE timestamp >= $1
		ORDER BY timestamp ASC
	`

	rows, err := s.pool.Query(ctx, query, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("get spend events since: %w", err)
	}
	defer rows.Close()

	return scanSpendEvents(rows)
}

// scanSpendEvents scans multiple rows into a slice of SpendEvent.
func scanSpendEvents(rows pgx.Rows) ([]*domain.SpendEvent, error) {
	var events []*domain.SpendEvent

	for rows.Next() {
		var (
			e      domain.SpendEvent
			amount string
		)

		if err := rows.Scan(&e.Timestamp, &amount); err != nil {
			return nil, fmt.Errorf("scan spend event row: %w", err)
		}

		dec, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse spend amount %q: %w", amount, err)
		}
		e.AmountUSD = dec

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spend event rows: %w", err)
	}

	return events, nil
}
