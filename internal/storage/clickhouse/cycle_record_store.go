package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"solana-keepalive/internal/domain"
	"solana-keepalive/internal/storage"
)

// CycleRecordStore implements storage.CycleRecordStore using ClickHouse.
// Cycle outcomes are analytics data: MergeTree append semantics are a fit
// and no uniqueness is enforced.
type CycleRecordStore struct {
	conn *Conn
}

// NewCycleRecordStore creates a new CycleRecordStore.
func NewCycleRecordStore(conn *Conn) *CycleRecordStore {
	return &CycleRecordStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CycleRecordStore = (*CycleRecordStore)(nil)

// Insert appends a cycle outcome record.
func (s *CycleRecordStore) Insert(ctx context.Context, r *domain.CycleRecord) error {
	if r == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO cycle_records (
			timestamp, active, buys, sells, action, amount_usd, signature, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		r.Timestamp.UTC(),
		boolToUInt8(r.Active),
		uint32(r.Buys),
		uint32(r.Sells),
		r.Action,
		r.AmountUSD.InexactFloat64(),
		r.Signature,
		r.Error,
	)
	if err != nil {
		return fmt.Errorf("insert cycle record: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves records within [start, end), ordered by timestamp ASC.
func (s *CycleRecordStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.CycleRecord, error) {
	query := `
		SELECT timestamp, active, buys, sells, action, amount_usd, signature, error
		FROM cycle_records
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("get cycle records by time range: %w", err)
	}
	defer rows.Close()

	var records []*domain.CycleRecord
	for rows.Next() {
		var (
			r      domain.CycleRecord
			active uint8
			buys   uint32
			sells  uint32
			amount float64
		)

		err := rows.Scan(
			&r.Timestamp, &active, &buys, &sells,
			&r.Action, &amount, &r.Signature, &r.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cycle record row: %w", err)
		}

		r.Active = active != 0
		r.Buys = int(buys)
		r.Sells = int(sells)
		r.AmountUSD = decimal.NewFromFloat(amount)

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycle record rows: %w", err)
	}

	return records, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
