package solana

import (
	"errors"
	"fmt"
)

// SignatureLength is the byte length of an ed25519 signature.
const SignatureLength = 64

// VersionedTransaction is the wire form of a Solana transaction: a
// compact-u16 signature count, the signature slots, then the serialized
// message. The message bytes are kept exactly as received so a detached
// signature stays byte-for-byte bound to the service-supplied payload.
type VersionedTransaction struct {
	Signatures [][]byte
	Message    []byte
}

// DecodeTransaction parses a serialized (signed or unsigned) transaction.
// Unsigned transactions carry zero-filled signature slots.
func DecodeTransaction(raw []byte) (*VersionedTransaction, error) {
	count, n, err := decodeCompactU16(raw)
	if err != nil {
		return nil, fmt.Errorf("decode signature count: %w", err)
	}

	need := n + count*SignatureLength
	if len(raw) <= need {
		return nil, fmt.Errorf("transaction too short: %d bytes for %d signatures", len(raw), count)
	}

	tx := &VersionedTransaction{
		Signatures: make([][]byte, count),
	}
	for i := 0; i < count; i++ {
		off := n + i*SignatureLength
		sig := make([]byte, SignatureLength)
		copy(sig, raw[off:off+SignatureLength])
		tx.Signatures[i] = sig
	}

	tx.Message = make([]byte, len(raw)-need)
	copy(tx.Message, raw[need:])

	return tx, nil
}

// AttachSignature places a detached signature into the given slot. Slot 0
// belongs to the fee payer, which for routing-service transactions is the
// wallet itself.
func (t *VersionedTransaction) AttachSignature(index int, sig []byte) error {
	if index < 0 || index >= len(t.Signatures) {
		return fmt.Errorf("signature slot %d out of range (%d slots)", index, len(t.Signatures))
	}
	if len(sig) != SignatureLength {
		return fmt.Errorf("signature must be %d bytes, got %d", SignatureLength, len(sig))
	}
	t.Signatures[index] = sig
	return nil
}

// Bytes serializes the transaction back to wire form.
func (t *VersionedTransaction) Bytes() []byte {
	out := encodeCompactU16(len(t.Signatures))
	for _, sig := range t.Signatures {
		out = append(out, sig...)
	}
	out = append(out, t.Message...)
	return out
}

// decodeCompactU16 reads a compact-u16 (shortvec) length prefix.
// Returns the value and the number of bytes consumed.
func decodeCompactU16(b []byte) (int, int, error) {
	var value, shift int
	for i := 0; i < 3; i++ {
		if i >= len(b) {
			return 0, 0, errors.New("truncated compact-u16")
		}
		elem := int(b[i])
		value |= (elem & 0x7f) << shift
		if elem&0x80 == 0 {
			if value > 0xffff {
				return 0, 0, errors.New("compact-u16 overflow")
			}
			return value, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, errors.New("compact-u16 too long")
}

// encodeCompactU16 writes a compact-u16 (shortvec) length prefix.
func encodeCompactU16(v int) []byte {
	var out []byte
	for {
		elem := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			out = append(out, elem)
			return out
		}
		out = append(out, elem|0x80)
	}
}
