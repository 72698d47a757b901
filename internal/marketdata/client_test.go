package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"solana-keepalive/internal/httpclient"
)

func TestTokenPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/solana/target-mint" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{
				"chainId": "solana",
				"dexId": "raydium",
				"pairAddress": "pair-1",
				"baseToken": {"address": "target-mint", "symbol": "CHRY"},
				"quoteToken": {"address": "sol-mint", "symbol": "SOL"},
				"priceUsd": "0.0031",
				"txns": {
					"m5": {"buys": 0, "sells": 0},
					"h1": {"buys": 1, "sells": 2},
					"h24": {"buys": 10, "sells": 20}
				}
			}
		]`))
	}))
	defer srv.Close()

	hc := httpclient.New(zerolog.Nop(), httpclient.WithRetryDelay(time.Millisecond))
	c := NewClient(hc, srv.URL, "solana")

	pairs, err := c.TokenPairs(context.Background(), "target-mint")
	if err != nil {
		t.Fatalf("TokenPairs failed: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	p := pairs[0]
	if p.DexID != "raydium" || p.BaseToken.Symbol != "CHRY" {
		t.Errorf("unexpected pair decoded: %+v", p)
	}
	if p.Txns.H24.Buys != 10 || p.Txns.H24.Sells != 20 {
		t.Errorf("unexpected h24 counts: %+v", p.Txns.H24)
	}
}

func TestTokenPairs_ObjectBodyMeansNoPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"schemaVersion":"1.0.0","error":"rate limited"}`))
	}))
	defer srv.Close()

	hc := httpclient.New(zerolog.Nop(), httpclient.WithRetryDelay(time.Millisecond))
	c := NewClient(hc, srv.URL, "solana")

	pairs, err := c.TokenPairs(context.Background(), "target-mint")
	if err != nil {
		t.Fatalf("expected non-array body tolerated, got %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("expected no pairs from object body, got %d", len(pairs))
	}
}

func TestMonitor_ObjectBodyIsInactive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"schemaVersion":"1.0.0","error":"rate limited"}`))
	}))
	defer srv.Close()

	hc := httpclient.New(zerolog.Nop(), httpclient.WithRetryDelay(time.Millisecond))
	c := NewClient(hc, srv.URL, "solana")
	m := NewMonitor(c, "target-mint", 24*time.Hour, false, zerolog.Nop())

	act, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("expected malformed upstream data treated as inactive, got %v", err)
	}
	if act.Active {
		t.Error("expected inactive for non-array upstream body")
	}
}

func TestTokenPairs_EmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	hc := httpclient.New(zerolog.Nop(), httpclient.WithRetryDelay(time.Millisecond))
	c := NewClient(hc, srv.URL, "solana")

	pairs, err := c.TokenPairs(context.Background(), "target-mint")
	if err != nil {
		t.Fatalf("TokenPairs failed: %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("expected no pairs, got %d", len(pairs))
	}
}
