// Package securemem holds secret bytes in process memory with best-effort
// protection against swapping and guaranteed zeroing on release.
//
// A Buffer pins its backing pages with mlock (VirtualLock on Windows) where
// the platform allows it. Pinning failure is recorded and logged, never
// propagated: the secret still has to flow. Destroy wipes every byte before
// the pages are unpinned, so callers pair each allocation with a deferred
// Destroy and get zeroing on every exit path, error paths included.
package securemem

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/awnumar/memguard"
)

var logger = slog.With("component", "securemem")

// Wipe zeroes b in place, for transient secret bytes that never got a
// Buffer of their own. Safe on nil.
func Wipe(b []byte) {
	memguard.WipeBytes(b)
}

// Buffer owns a byte slice holding secret material.
type Buffer struct {
	mu        sync.Mutex
	data      []byte
	locked    bool
	destroyed bool
}

// Alloc returns a zero-filled buffer of n bytes. Page locking is attempted
// but its failure does not fail the allocation.
func Alloc(n int) (*Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("securemem: invalid size %d", n)
	}
	return FromBytes(make([]byte, n)), nil
}

// FromBytes takes ownership of data in place. The caller must treat its
// slice as moved-from: the bytes are wiped when the buffer is destroyed.
func FromBytes(data []byte) *Buffer {
	b := &Buffer{data: data}
	if len(data) > 0 {
		if err := lockPages(data); err != nil {
			logger.Debug("page lock unavailable", "size", len(data), "error", err)
		} else {
			b.locked = true
		}
	}
	return b
}

// Bytes exposes the backing slice for the buffer's lifetime.
// It returns nil after Destroy.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// Len returns the buffer size in bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Locked reports whether the page lock succeeded at construction.
func (b *Buffer) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Destroy overwrites every byte with zero, then unpins the pages if the lock
// had succeeded. Safe to call more than once. The wipe goes through
// memguard, which guarantees the writes are not optimized away.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	memguard.WipeBytes(b.data)
	if b.locked {
		if err := unlockPages(b.data); err != nil {
			logger.Debug("page unlock failed", "size", len(b.data), "error", err)
		}
		b.locked = false
	}
	b.data = nil
	b.destroyed = true
}
