package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultConfirmTimeout bounds how long a confirmation wait may block a cycle.
const DefaultConfirmTimeout = 45 * time.Second

// Confirmer waits for a submitted signature to reach confirmed commitment
// using a one-shot signatureSubscribe over the RPC WebSocket endpoint.
type Confirmer struct {
	endpoint string
	timeout  time.Duration
}

// NewConfirmer creates a signature confirmer for the given WebSocket endpoint.
func NewConfirmer(endpoint string, timeout time.Duration) *Confirmer {
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}
	return &Confirmer{endpoint: endpoint, timeout: timeout}
}

// signatureNotification is the subscription message for a signature result.
type signatureNotification struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Value struct {
				Err interface{} `json:"err"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

// WaitForSignature blocks until the signature is confirmed, the transaction
// fails on-chain, or the timeout elapses.
func (c *Confirmer) WaitForSignature(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("set read deadline: %w", err)
	}

	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "signatureSubscribe",
		"params": []interface{}{
			signature,
			map[string]interface{}{"commitment": "confirmed"},
		},
	}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe request: %w", err)
	}

	// First message acknowledges the subscription; the notification with the
	// signature result follows. Anything else on the connection is skipped.
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}

		var note signatureNotification
		if err := json.Unmarshal(msg, &note); err != nil {
			continue
		}
		if note.Method != "signatureNotification" {
			continue
		}

		if note.Params.Result.Value.Err != nil {
			return fmt.Errorf("transaction failed on-chain: %v", note.Params.Result.Value.Err)
		}
		return nil
	}
}
