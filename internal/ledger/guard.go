// Package ledger enforces the daily spend cap over a rolling 24-hour
// window of recorded purchases.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"solana-keepalive/internal/domain"
	"solana-keepalive/internal/storage"
)

// ErrBudgetExceeded is returned when a proposed spend would push the
// trailing-window total above the daily cap.
var ErrBudgetExceeded = errors.New("daily spend cap reached")

// DefaultWindow is the trailing window the cap applies to.
const DefaultWindow = 24 * time.Hour

// Guard admits or rejects proposed spends against a fixed daily cap.
// Events older than the window are never counted. Each method is
// mutex-guarded on its own; an admission is not reserved until
// RecordSpend, so callers must serialize the check-then-record sequence.
type Guard struct {
	mu       sync.Mutex
	store    storage.SpendEventStore
	dailyCap decimal.Decimal
	window   time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewGuard creates a spend guard backed by the given event store.
func NewGuard(store storage.SpendEventStore, dailyCap decimal.Decimal, log zerolog.Logger) *Guard {
	return &Guard{
		store:    store,
		dailyCap: dailyCap,
		window:   DefaultWindow,
		now:      time.Now,
		log:      log,
	}
}

// WithClock overrides the time source, for tests.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// CanSpend reports whether amount can be spent without pushing the
// trailing-window total above the cap.
func (g *Guard) CanSpend(ctx context.Context, amount decimal.Decimal) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	spent, err := g.spentInWindow(ctx)
	if err != nil {
		return false, err
	}

	ok := spent.Add(amount).LessThanOrEqual(g.dailyCap)
	g.log.Debug().
		Str("spent_24h", spent.StringFixed(2)).
		Str("amount", amount.StringFixed(2)).
		Str("cap", g.dailyCap.StringFixed(2)).
		Bool("admitted", ok).
		Msg("spend guard admission check")

	return ok, nil
}

// RecordSpend appends a spend event with the current timestamp. Call only
// after a swap has genuinely transferred funds, never for simulated runs.
func (g *Guard) RecordSpend(ctx context.Context, amount decimal.Decimal) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	event := &domain.SpendEvent{
		Timestamp: g.now().UTC(),
		AmountUSD: amount,
	}
	if err := g.store.Insert(ctx, event); err != nil {
		return fmt.Errorf("record spend: %w", err)
	}

	spent, err := g.spentInWindow(ctx)
	if err != nil {
		return err
	}

	g.log.Info().
		Str("amount", amount.StringFixed(2)).
		Str("spent_24h", spent.StringFixed(2)).
		Msg("recorded spend")

	return nil
}

// spentInWindow sums recorded spends within the trailing window. Callers
// must hold the mutex.
func (g *Guard) spentInWindow(ctx context.Context) (decimal.Decimal, error) {
	cutoff := g.now().Add(-g.window)

	events, err := g.store.GetSince(ctx, cutoff)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load spend events: %w", err)
	}

	total := decimal.Zero
	for _, e := range events {
		total = total.Add(e.AmountUSD)
	}
	return total, nil
}
