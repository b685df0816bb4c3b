// Package keychain provides key storage backed by the operating system's
// native credential store.
//
// Each key is a (key ID, payload, metadata) triple persisted as two native
// entries under the fixed service namespace "identra-vault":
//   - the payload under the key ID itself, base64-encoded because the
//     native stores are text-only
//   - a JSON metadata side-entry under "<key ID>_metadata"
//
// Exactly one SystemStore implementation is compiled per target OS:
// macOS Keychain (keybase/go-keychain), Linux Secret Service
// (zalando/go-keyring), Windows Credential Manager (danieljoos/wincred).
// Other platforms fall back to MemoryStore.
package keychain

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// ServiceName is the credential-store service attribute for all vault entries.
	ServiceName = "identra-vault"

	// metadataSuffix derives the side-entry name from a key ID.
	metadataSuffix = "_metadata"
)

var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("key not found")

	// ErrUnsupported is returned when the native store cannot perform an
	// operation, e.g. enumeration on stores with no list API. Callers must
	// see this explicitly rather than an empty result.
	ErrUnsupported = errors.New("operation not supported by this keychain backend")

	// ErrInconsistent is returned when the primary entry exists but its
	// metadata side-entry is missing or corrupt. This is partial state from
	// external tampering or backend limits, never silently repaired.
	ErrInconsistent = errors.New("inconsistent keychain record")
)

// Metadata is stored alongside every key.
type Metadata struct {
	CreatedAt int64             `json:"created_at"`
	ExpiresAt *int64            `json:"expires_at,omitempty"`
	Custom    map[string]string `json:"custom,omitempty"`
}

// Store is the interface for key storage operations. Set overwrites both
// entries of an existing key in full; payload first, so the only partial
// state a concurrent reader can observe is the new payload paired with the
// old metadata, bounded by the gap between the two writes.
type Store interface {
	Set(keyID string, payload []byte, meta Metadata) error
	Get(keyID string) ([]byte, Metadata, error)
	Delete(keyID string) error
	Exists(keyID string) bool
	List() ([]string, error)
}

func metadataKey(keyID string) string {
	return keyID + metadataSuffix
}

func encodePayload(payload []byte) string {
	return base64.StdEncoding.EncodeToString(payload)
}

func decodePayload(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return data, nil
}

func encodeMetadata(meta Metadata) (string, error) {
	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("serializing metadata: %w", err)
	}
	return string(data), nil
}

// decodeMetadata parses a side-entry. A side-entry that does not parse is
// partial state, reported as ErrInconsistent.
func decodeMetadata(s string) (Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal([]byte(s), &meta); err != nil {
		return Metadata{}, fmt.Errorf("%w: corrupt metadata: %v", ErrInconsistent, err)
	}
	return meta, nil
}
