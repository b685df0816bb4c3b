//go:build linux

package keychain

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// SystemStore provides key storage via the freedesktop Secret Service
// (GNOME Keyring, KWallet) over D-Bus.
type SystemStore struct {
	service string
}

// NewSystemStore creates a Secret-Service-backed key store.
func NewSystemStore() *SystemStore {
	return &SystemStore{service: ServiceName}
}

// Set stores payload and metadata, overwriting both entries if the key
// already exists. The two writes are not atomic together: between them a
// concurrent reader can pair the new payload with the old metadata. The
// window closes with the side-entry write.
func (s *SystemStore) Set(keyID string, payload []byte, meta Metadata) error {
	metaJSON, err := encodeMetadata(meta)
	if err != nil {
		return err
	}
	if err := keyring.Set(s.service, keyID, encodePayload(payload)); err != nil {
		return fmt.Errorf("secret service set %q: %w", keyID, err)
	}
	if err := keyring.Set(s.service, metadataKey(keyID), metaJSON); err != nil {
		return fmt.Errorf("secret service set metadata %q: %w", keyID, err)
	}
	return nil
}

// Get retrieves payload and metadata. A key whose primary entry exists but
// whose side-entry is missing or corrupt yields ErrInconsistent.
func (s *SystemStore) Get(keyID string) ([]byte, Metadata, error) {
	enc, err := keyring.Get(s.service, keyID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, keyID)
		}
		return nil, Metadata{}, fmt.Errorf("secret service get %q: %w", keyID, err)
	}

	payload, err := decodePayload(enc)
	if err != nil {
		return nil, Metadata{}, err
	}

	metaJSON, err := keyring.Get(s.service, metadataKey(keyID))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, Metadata{}, fmt.Errorf("%w: missing metadata for %s", ErrInconsistent, keyID)
		}
		return nil, Metadata{}, fmt.Errorf("secret service get metadata %q: %w", keyID, err)
	}

	meta, err := decodeMetadata(metaJSON)
	if err != nil {
		return nil, Metadata{}, err
	}
	return payload, meta, nil
}

// Delete removes both entries. The metadata side-entry is best-effort;
// deleting a key that does not exist is not an error.
func (s *SystemStore) Delete(keyID string) error {
	err := keyring.Delete(s.service, keyID)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("secret service delete %q: %w", keyID, err)
	}
	_ = keyring.Delete(s.service, metadataKey(keyID))
	return nil
}

// Exists reports whether the primary entry is present. Never errors; any
// lookup failure reads as absent.
func (s *SystemStore) Exists(keyID string) bool {
	_, err := keyring.Get(s.service, keyID)
	return err == nil
}

// List is not available through the Secret Service wrapper: go-keyring
// exposes no enumeration API. Callers get ErrUnsupported, never a silent
// empty list.
func (s *SystemStore) List() ([]string, error) {
	return nil, fmt.Errorf("%w: secret service exposes no enumeration", ErrUnsupported)
}
