package buf

import "testing"

func TestEndianHelpers(t *testing.T) {
	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	if got := U64LE(data); got != 0xefcdab8967452301 {
		t.Fatalf("U64LE = 0x%x, want 0xefcdab8967452301", got)
	}
	if got := I32LE(data); got != 0x67452301 {
		t.Fatalf("I32LE = 0x%x, want 0x67452301", got)
	}

	short := []byte{0xAA}
	if U64LE(short) != 0 || I32LE(short) != 0 {
		t.Fatalf("short reads should return 0")
	}
}

func TestEndianWriters(t *testing.T) {
	b := make([]byte, 8)
	if !PutU64LE(b, 1024) {
		t.Fatalf("PutU64LE rejected an 8-byte buffer")
	}
	if got := U64LE(b); got != 1024 {
		t.Fatalf("U64LE after PutU64LE = %d, want 1024", got)
	}
	if !PutI32LE(b[4:], -7) {
		t.Fatalf("PutI32LE rejected a 4-byte buffer")
	}
	if got := I32LE(b[4:]); got != -7 {
		t.Fatalf("I32LE after PutI32LE = %d, want -7", got)
	}
	if PutU64LE(b[:7], 1) || PutI32LE(b[:3], 1) {
		t.Fatalf("short writes should be rejected")
	}
}
