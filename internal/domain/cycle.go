package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cycle actions as recorded in history.
const (
	ActionNone        = "NONE"         // market was active, no buy attempted
	ActionBuy         = "BUY"          // primary buy succeeded
	ActionFallbackBuy = "FALLBACK_BUY" // primary failed, fallback succeeded
	ActionDryRun      = "DRY_RUN"      // simulated buy, no funds moved
	ActionError       = "ERROR"        // cycle ended in error
	ActionRejected    = "REJECTED"     // spend guard rejected the buy
)

// CycleRecord captures the outcome of one keep-alive cycle for analysis.
type CycleRecord struct {
	Timestamp time.Time
	Active    bool
	Buys      int
	Sells     int
	Action    string
	AmountUSD decimal.Decimal
	Signature string
	Error     string
}
