//go:build !darwin && !linux && !windows

package keychain

// NewSystemStore returns a MemoryStore on platforms without a native
// credential store. Keys are held in memory only and do not persist
// across restarts.
func NewSystemStore() *MemoryStore {
	return NewMemoryStore()
}
