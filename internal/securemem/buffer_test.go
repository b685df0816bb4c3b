package securemem

import (
	"bytes"
	"testing"
)

func TestAllocZeroFilled(t *testing.T) {
	b, err := Alloc(32)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	defer b.Destroy()

	if b.Len() != 32 {
		t.Fatalf("expected len 32, got %d", b.Len())
	}
	if !bytes.Equal(b.Bytes(), make([]byte, 32)) {
		t.Error("expected zero-filled buffer")
	}
}

func TestAllocNegativeSize(t *testing.T) {
	if _, err := Alloc(-1); err == nil {
		t.Error("expected error for negative size")
	}
}

func TestFromBytesRoundTrip(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	b := FromBytes(data)
	defer b.Destroy()

	if !bytes.Equal(b.Bytes(), []byte{1, 2, 3, 4, 5}) {
		t.Errorf("unexpected contents: %v", b.Bytes())
	}
}

// Keep an alias to the backing storage independent of the buffer's own
// accessor and check that no byte of the original pattern survives Destroy.
func TestDestroyWipesBackingStorage(t *testing.T) {
	raw := make([]byte, 64)
	for i := range raw {
		raw[i] = 0xAB
	}

	b := FromBytes(raw)
	b.Destroy()

	for i, v := range raw {
		if v != 0 {
			t.Fatalf("byte %d not wiped: got %#x", i, v)
		}
	}
}

func TestDestroyWipesPartiallyFilled(t *testing.T) {
	b, err := Alloc(16)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	raw := b.Bytes()
	copy(raw, "partial")

	b.Destroy()

	for i, v := range raw {
		if v != 0 {
			t.Fatalf("byte %d not wiped: got %#x", i, v)
		}
	}
}

func TestDestroyIdempotent(t *testing.T) {
	b := FromBytes([]byte("secret"))
	b.Destroy()
	b.Destroy()

	if b.Bytes() != nil {
		t.Error("expected nil bytes after destroy")
	}
	if b.Len() != 0 {
		t.Errorf("expected len 0 after destroy, got %d", b.Len())
	}
}

func TestEmptyBuffer(t *testing.T) {
	b := FromBytes(nil)
	if b.Locked() {
		t.Error("empty buffer should not claim a page lock")
	}
	b.Destroy()
}
