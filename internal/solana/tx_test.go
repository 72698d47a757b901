package solana

import (
	"bytes"
	"testing"
)

func TestCompactU16Roundtrip(t *testing.T) {
	values := []int{0, 1, 2, 127, 128, 255, 256, 16383, 16384, 0xffff}
	for _, v := range values {
		enc := encodeCompactU16(v)
		got, n, err := decodeCompactU16(enc)
		if err != nil {
			t.Fatalf("value %d: decode failed: %v", v, err)
		}
		if got != v {
			t.Errorf("value %d: decoded as %d", v, got)
		}
		if n != len(enc) {
			t.Errorf("value %d: consumed %d of %d bytes", v, n, len(enc))
		}
	}
}

func TestDecodeCompactU16_Truncated(t *testing.T) {
	if _, _, err := decodeCompactU16(nil); err == nil {
		t.Error("expected error for empty input")
	}
	if _, _, err := decodeCompactU16([]byte{0x80}); err == nil {
		t.Error("expected error for truncated continuation")
	}
}

func TestDecodeCompactU16_Overflow(t *testing.T) {
	if _, _, err := decodeCompactU16([]byte{0xff, 0xff, 0x7f}); err == nil {
		t.Error("expected overflow error for value above 0xffff")
	}
}

// unsignedTx builds a wire transaction with n zero-filled signature slots.
func unsignedTx(n int, message []byte) []byte {
	raw := encodeCompactU16(n)
	raw = append(raw, make([]byte, n*SignatureLength)...)
	return append(raw, message...)
}

func TestDecodeTransaction(t *testing.T) {
	message := []byte("serialized message payload")
	raw := unsignedTx(1, message)

	tx, err := DecodeTransaction(raw)
	if err != nil {
		t.Fatalf("DecodeTransaction failed: %v", err)
	}
	if len(tx.Signatures) != 1 {
		t.Fatalf("expected 1 signature slot, got %d", len(tx.Signatures))
	}
	if !bytes.Equal(tx.Signatures[0], make([]byte, SignatureLength)) {
		t.Error("expected zero-filled signature slot")
	}
	if !bytes.Equal(tx.Message, message) {
		t.Errorf("message bytes altered: got %q", tx.Message)
	}
}

func TestDecodeTransaction_TooShort(t *testing.T) {
	raw := encodeCompactU16(2)
	raw = append(raw, make([]byte, SignatureLength)...) // one slot missing

	if _, err := DecodeTransaction(raw); err == nil {
		t.Error("expected error for truncated transaction")
	}
}

func TestAttachSignatureAndBytesRoundtrip(t *testing.T) {
	message := []byte{0x80, 0x01, 0x02, 0x03} // version prefix plus payload
	raw := unsignedTx(1, message)

	tx, err := DecodeTransaction(raw)
	if err != nil {
		t.Fatalf("DecodeTransaction failed: %v", err)
	}

	sig := bytes.Repeat([]byte{0xab}, SignatureLength)
	if err := tx.AttachSignature(0, sig); err != nil {
		t.Fatalf("AttachSignature failed: %v", err)
	}

	out := tx.Bytes()
	want := append(encodeCompactU16(1), sig...)
	want = append(want, message...)
	if !bytes.Equal(out, want) {
		t.Errorf("serialized transaction mismatch:\n got %x\nwant %x", out, want)
	}
}

func TestAttachSignature_Validation(t *testing.T) {
	tx, err := DecodeTransaction(unsignedTx(1, []byte("msg")))
	if err != nil {
		t.Fatalf("DecodeTransaction failed: %v", err)
	}

	if err := tx.AttachSignature(1, make([]byte, SignatureLength)); err == nil {
		t.Error("expected error for out-of-range slot")
	}
	if err := tx.AttachSignature(0, make([]byte, 32)); err == nil {
		t.Error("expected error for short signature")
	}
}
