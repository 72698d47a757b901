// Package solana provides the minimal Solana surface the agent needs:
// JSON-RPC access, wallet key handling, versioned-transaction signing and
// WebSocket signature confirmation.
package solana

import (
	"context"
	"errors"
)

// LamportsPerSol is the number of lamports in one SOL.
const LamportsPerSol = 1_000_000_000

// ErrNoSignature is returned when transaction submission yields no
// confirmation signature.
var ErrNoSignature = errors.New("no signature returned from submission")

// RPCClient defines the Solana RPC interface used by the agent.
type RPCClient interface {
	// GetBalance retrieves the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// SendTransaction submits a fully signed transaction and returns its
	// confirmation signature.
	SendTransaction(ctx context.Context, signedTx []byte) (string, error)
}
