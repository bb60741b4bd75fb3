package secret

import (
	"encoding/hex"
	"strings"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := hex.DecodeString("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	if err != nil {
		t.Fatalf("decode key: %v", err)
	}
	return key
}

func TestSealOpenRoundtrip(t *testing.T) {
	sealer, err := NewAESGCMSealer(testKey(t))
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}

	sealed, err := sealer.Seal("sk-test-credential")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if strings.Contains(sealed, "sk-test-credential") {
		t.Fatalf("sealed payload leaks plaintext")
	}

	opened, err := sealer.Open(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if opened != "sk-test-credential" {
		t.Fatalf("roundtrip mismatch: %q", opened)
	}
}

func TestSealProducesUniquePayloads(t *testing.T) {
	sealer, err := NewAESGCMSealer(testKey(t))
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}

	a, _ := sealer.Seal("same value")
	b, _ := sealer.Seal("same value")
	if a == b {
		t.Fatalf("nonce reuse: identical payloads for identical plaintext")
	}
}

func TestOpenRejectsWrongKey(t *testing.T) {
	sealer, _ := NewAESGCMSealer(testKey(t))
	other, _ := NewAESGCMSealer(make([]byte, 32))

	sealed, err := sealer.Seal("secret")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := other.Open(sealed); err == nil {
		t.Fatalf("expected failure opening with a different key")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	sealer, _ := NewAESGCMSealer(testKey(t))

	if _, err := sealer.Open("not base64!!"); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := sealer.Open("c2hvcnQ"); err == nil {
		t.Fatalf("expected too-short error")
	}
}

func TestNewAESGCMSealerHex(t *testing.T) {
	sealer, err := NewAESGCMSealerHex("000102030405060708090a0b0c0d0e0f")
	if err != nil {
		t.Fatalf("hex sealer: %v", err)
	}
	sealed, err := sealer.Seal("v")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if opened, err := sealer.Open(sealed); err != nil || opened != "v" {
		t.Fatalf("roundtrip failed: %q %v", opened, err)
	}

	if _, err := NewAESGCMSealerHex("zz"); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
	if _, err := NewAESGCMSealerHex("0001"); err == nil {
		t.Fatalf("expected error for invalid key length")
	}
}
