// Package domain defines core data types shared across the keep-alive agent.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpendEvent records a completed, non-simulated purchase.
// Events are append-only and pruned from consideration once older
// than the guard window.
type SpendEvent struct {
	Timestamp time.Time
	AmountUSD decimal.Decimal
}
