package keychain

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory implementation of Store, used in tests and on
// platforms without a native credential store. It mirrors the native layout
// — text entries, payload plus metadata side-entry — so the same encoding
// and consistency paths run everywhere.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore creates an empty in-memory key store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (s *MemoryStore) Set(keyID string, payload []byte, meta Metadata) error {
	metaJSON, err := encodeMetadata(meta)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[keyID] = encodePayload(payload)
	s.entries[metadataKey(keyID)] = metaJSON
	return nil
}

func (s *MemoryStore) Get(keyID string) ([]byte, Metadata, error) {
	s.mu.RLock()
	enc, ok := s.entries[keyID]
	metaJSON, metaOK := s.entries[metadataKey(keyID)]
	s.mu.RUnlock()

	if !ok {
		return nil, Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, keyID)
	}

	payload, err := decodePayload(enc)
	if err != nil {
		return nil, Metadata{}, err
	}
	if !metaOK {
		return nil, Metadata{}, fmt.Errorf("%w: missing metadata for %s", ErrInconsistent, keyID)
	}

	meta, err := decodeMetadata(metaJSON)
	if err != nil {
		return nil, Metadata{}, err
	}
	return payload, meta, nil
}

func (s *MemoryStore) Delete(keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, keyID)
	delete(s.entries, metadataKey(keyID))
	return nil
}

func (s *MemoryStore) Exists(keyID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[keyID]
	return ok
}

func (s *MemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries)/2)
	for k := range s.entries {
		if strings.HasSuffix(k, metadataSuffix) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// dropEntry removes a raw entry, bypassing the paired delete. Used by tests
// to simulate external tampering with the native store.
func (s *MemoryStore) dropEntry(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
}

// corruptEntry replaces a raw entry's value. Used by tests to simulate a
// damaged side-entry.
func (s *MemoryStore) corruptEntry(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = value
}
