package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakePairSource struct {
	pairs []Pair
	err   error
	calls int
}

func (f *fakePairSource) TokenPairs(ctx context.Context, mint string) ([]Pair, error) {
	f.calls++
	return f.pairs, f.err
}

func TestMonitor_ActiveWhenBuysPresent(t *testing.T) {
	source := &fakePairSource{pairs: []Pair{
		{Txns: Transactions{H24: BuysSells{Buys: 3, Sells: 0}}},
	}}
	m := NewMonitor(source, "mint", 24*time.Hour, false, zerolog.Nop())

	act, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !act.Active {
		t.Error("expected active with 3 buys in h24")
	}
	if act.Buys != 3 || act.Sells != 0 {
		t.Errorf("expected buys=3 sells=0, got buys=%d sells=%d", act.Buys, act.Sells)
	}
	if act.Window != "h24" {
		t.Errorf("expected h24 window, got %q", act.Window)
	}
}

func TestMonitor_SumsAcrossPairs(t *testing.T) {
	source := &fakePairSource{pairs: []Pair{
		{Txns: Transactions{H1: BuysSells{Buys: 1, Sells: 2}}},
		{Txns: Transactions{H1: BuysSells{Buys: 0, Sells: 4}}},
	}}
	m := NewMonitor(source, "mint", time.Hour, false, zerolog.Nop())

	act, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if act.Buys != 1 || act.Sells != 6 {
		t.Errorf("expected buys=1 sells=6, got buys=%d sells=%d", act.Buys, act.Sells)
	}
}

func TestMonitor_InactiveWhenZeroTransactions(t *testing.T) {
	source := &fakePairSource{pairs: []Pair{
		{Txns: Transactions{H24: BuysSells{Buys: 0, Sells: 0}}},
	}}
	m := NewMonitor(source, "mint", 24*time.Hour, false, zerolog.Nop())

	act, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if act.Active {
		t.Error("expected inactive with zero transactions")
	}
}

func TestMonitor_EmptyResponseIsInactive(t *testing.T) {
	source := &fakePairSource{pairs: nil}
	m := NewMonitor(source, "mint", 24*time.Hour, false, zerolog.Nop())

	act, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if act.Active {
		t.Error("expected inactive for empty pair list")
	}
}

func TestMonitor_TransportErrorPropagates(t *testing.T) {
	wantErr := errors.New("upstream down")
	source := &fakePairSource{err: wantErr}
	m := NewMonitor(source, "mint", 24*time.Hour, false, zerolog.Nop())

	_, err := m.Check(context.Background())
	if !errors.Is(err, wantErr) {
		t.Errorf("expected transport error to propagate, got %v", err)
	}
}

func TestMonitor_MockInactiveSkipsQuery(t *testing.T) {
	source := &fakePairSource{pairs: []Pair{
		{Txns: Transactions{H24: BuysSells{Buys: 100, Sells: 100}}},
	}}
	m := NewMonitor(source, "mint", 24*time.Hour, true, zerolog.Nop())

	act, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if act.Active {
		t.Error("expected mocked inactivity")
	}
	if source.calls != 0 {
		t.Errorf("expected no upstream query, got %d calls", source.calls)
	}
}

func TestMonitor_BucketSelection(t *testing.T) {
	txns := Transactions{
		M5:  BuysSells{Buys: 1},
		H1:  BuysSells{Buys: 2},
		H24: BuysSells{Buys: 3},
	}
	tests := []struct {
		window   time.Duration
		wantName string
		wantBuys int
	}{
		{5 * time.Minute, "m5", 1},
		{30 * time.Minute, "h1", 2},
		{time.Hour, "h1", 2},
		{24 * time.Hour, "h24", 3},
		{time.Minute, "m5", 1},
	}
	for _, tt := range tests {
		source := &fakePairSource{pairs: []Pair{{Txns: txns}}}
		m := NewMonitor(source, "mint", tt.window, false, zerolog.Nop())
		act, err := m.Check(context.Background())
		if err != nil {
			t.Fatalf("window %v: Check failed: %v", tt.window, err)
		}
		if act.Window != tt.wantName {
			t.Errorf("window %v: expected bucket %q, got %q", tt.window, tt.wantName, act.Window)
		}
		if act.Buys != tt.wantBuys {
			t.Errorf("window %v: expected buys=%d, got %d", tt.window, tt.wantBuys, act.Buys)
		}
	}
}
