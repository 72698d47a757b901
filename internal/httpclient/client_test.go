package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(opts ...Option) *Client {
	base := []Option{WithRetryDelay(time.Millisecond)}
	return New(zerolog.Nop(), append(base, opts...)...)
}

func TestGetJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.URL.Query().Get("mint"); got != "abc" {
			t.Errorf("expected mint=abc, got %q", got)
		}
		w.Write([]byte(`{"value": 42}`))
	}))
	defer srv.Close()

	var result struct {
		Value int `json:"value"`
	}
	params := url.Values{"mint": {"abc"}}
	if err := testClient().GetJSON(context.Background(), srv.URL, params, &result); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if result.Value != 42 {
		t.Errorf("expected 42, got %d", result.Value)
	}
}

func TestGetJSON_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	var result struct {
		OK bool `json:"ok"`
	}
	if err := testClient().GetJSON(context.Background(), srv.URL, nil, &result); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if !result.OK {
		t.Error("expected ok=true after retries")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestGetJSON_ExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	err := testClient().GetJSON(context.Background(), srv.URL, nil, nil)
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if transportErr.Status != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", transportErr.Status)
	}
	if transportErr.Body != "slow down" {
		t.Errorf("expected body snapshot, got %q", transportErr.Body)
	}
	if got := calls.Load(); got != DefaultMaxRetries {
		t.Errorf("expected %d attempts, got %d", DefaultMaxRetries, got)
	}
}

func TestPostJSON_SendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		w.Write([]byte(`{"echo": "hi"}`))
	}))
	defer srv.Close()

	var result struct {
		Echo string `json:"echo"`
	}
	body := map[string]string{"msg": "hi"}
	if err := testClient().PostJSON(context.Background(), srv.URL, body, &result); err != nil {
		t.Fatalf("PostJSON failed: %v", err)
	}
	if result.Echo != "hi" {
		t.Errorf("expected echo=hi, got %q", result.Echo)
	}
}

func TestGetJSON_BodySnapshotTruncated(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(long)
	}))
	defer srv.Close()

	err := testClient().GetJSON(context.Background(), srv.URL, nil, nil)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if len(transportErr.Body) != maxBodySnippet {
		t.Errorf("expected body truncated to %d, got %d", maxBodySnippet, len(transportErr.Body))
	}
}

func TestGetJSON_ErrorFieldsFromFinalAttempt(t *testing.T) {
	// First attempt gets a 502 with a body; the rest die on the wire. The
	// reported error must not mix the stale status with the newer failure.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("bad gateway"))
			return
		}
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack failed: %v", err)
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	err := testClient().GetJSON(context.Background(), srv.URL, nil, nil)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if transportErr.Err == nil {
		t.Error("expected underlying transport error")
	}
	if transportErr.Status != 0 || transportErr.Body != "" {
		t.Errorf("expected stale status/body cleared, got status=%d body=%q",
			transportErr.Status, transportErr.Body)
	}
}

func TestGetJSON_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := testClient(WithRetryDelay(time.Second)).GetJSON(ctx, srv.URL, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
