package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PairSource supplies trading-pair entries for a token mint.
type PairSource interface {
	TokenPairs(ctx context.Context, mint string) ([]Pair, error)
}

// Activity summarizes observed trading activity in the selected window.
type Activity struct {
	Active bool
	Buys   int
	Sells  int
	Window string
}

// Monitor decides whether the target token has recent trading activity.
//
// An empty or malformed upstream response is reported as inactive: the agent
// fails open toward action rather than missing a window on a data-source
// hiccup. A transport failure still surfaces as an error.
type Monitor struct {
	source       PairSource
	mint         string
	window       time.Duration
	mockInactive bool
	log          zerolog.Logger
}

// NewMonitor creates an activity monitor for the given mint and window.
func NewMonitor(source PairSource, mint string, window time.Duration, mockInactive bool, log zerolog.Logger) *Monitor {
	return &Monitor{
		source:       source,
		mint:         mint,
		window:       window,
		mockInactive: mockInactive,
		log:          log,
	}
}

// Check reports trading activity for the configured window. The bucket is
// selected by window size: <=5m uses m5, <=1h uses h1, otherwise h24.
func (m *Monitor) Check(ctx context.Context) (Activity, error) {
	if m.mockInactive {
		m.log.Debug().Msg("mocked inactivity: skipping market-data query")
		return Activity{Active: false, Window: m.bucketName()}, nil
	}

	pairs, err := m.source.TokenPairs(ctx, m.mint)
	if err != nil {
		return Activity{}, err
	}

	act := Activity{Window: m.bucketName()}
	for _, p := range pairs {
		bucket := m.selectBucket(p.Txns)
		act.Buys += bucket.Buys
		act.Sells += bucket.Sells
	}
	act.Active = act.Buys+act.Sells > 0

	m.log.Debug().
		Str("window", act.Window).
		Int("buys", act.Buys).
		Int("sells", act.Sells).
		Int("pairs", len(pairs)).
		Bool("active", act.Active).
		Msg("activity check")

	return act, nil
}

func (m *Monitor) selectBucket(t Transactions) BuysSells {
	switch {
	case m.window <= 5*time.Minute:
		return t.M5
	case m.window <= time.Hour:
		return t.H1
	default:
		return t.H24
	}
}

func (m *Monitor) bucketName() string {
	switch {
	case m.window <= 5*time.Minute:
		return "m5"
	case m.window <= time.Hour:
		return "h1"
	default:
		return "h24"
	}
}
