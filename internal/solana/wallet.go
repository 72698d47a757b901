package solana

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrKeyMismatch is returned when the configured public key does not match
// the key derived from the secret material. Operating with mismatched
// credentials is unsafe, so this error is fatal at startup.
var ErrKeyMismatch = errors.New("public key does not match wallet secret")

// Wallet holds the signing key for the process lifetime. The secret is kept
// only in memory and leaves the process exclusively as a signature.
type Wallet struct {
	priv   ed25519.PrivateKey
	pubkey string
}

// NewWalletFromBase58 constructs a wallet from a base58-encoded 64-byte
// ed25519 private key (seed followed by public key).
func NewWalletFromBase58(secret string) (*Wallet, error) {
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("decode wallet secret: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("wallet secret must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}

	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)

	return &Wallet{
		priv:   priv,
		pubkey: base58.Encode(pub),
	}, nil
}

// PublicKey returns the base58-encoded public key derived from the secret.
func (w *Wallet) PublicKey() string {
	return w.pubkey
}

// SignMessage produces a detached ed25519 signature over the message bytes.
func (w *Wallet) SignMessage(msg []byte) []byte {
	return ed25519.Sign(w.priv, msg)
}

// VerifyPublicKey checks that the configured public key is a valid curve
// point and matches the derived key. Returns ErrKeyMismatch otherwise.
func (w *Wallet) VerifyPublicKey(configured string) error {
	raw, err := base58.Decode(configured)
	if err != nil {
		return fmt.Errorf("decode configured public key: %w", err)
	}
	if !isOnCurve(raw) {
		return fmt.Errorf("configured public key is not a valid ed25519 point")
	}
	if configured != w.pubkey {
		return ErrKeyMismatch
	}
	return nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
