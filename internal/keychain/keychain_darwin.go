//go:build darwin

package keychain

import (
	"errors"
	"fmt"
	"strings"

	gokeychain "github.com/keybase/go-keychain"
)

// SystemStore provides key storage in the macOS Keychain.
//
// Entries are generic passwords scoped with
// kSecAttrAccessibleWhenUnlockedThisDeviceOnly: never synced to iCloud,
// never available while the machine is locked.
type SystemStore struct {
	service string
}

// NewSystemStore creates a Keychain-backed key store.
func NewSystemStore() *SystemStore {
	return &SystemStore{service: ServiceName}
}

func (s *SystemStore) setEntry(account, value string) error {
	// Update = delete + add; AddItem fails on duplicates.
	_ = gokeychain.DeleteGenericPasswordItem(s.service, account)

	item := gokeychain.NewGenericPassword(
		s.service,
		account,
		fmt.Sprintf("identra: %s", account),
		[]byte(value),
		"",
	)
	item.SetSynchronizable(gokeychain.SynchronizableNo)
	item.SetAccessible(gokeychain.AccessibleWhenUnlockedThisDeviceOnly)

	if err := gokeychain.AddItem(item); err != nil {
		return fmt.Errorf("keychain add %q: %w", account, err)
	}
	return nil
}

func (s *SystemStore) getEntry(account string) (string, bool, error) {
	data, err := gokeychain.GetGenericPassword(s.service, account, "", "")
	if err != nil {
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("keychain get %q: %w", account, err)
	}
	if data == nil {
		return "", false, nil
	}
	return string(data), true, nil
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
	if err := s.setEntry(keyID, encodePayload(payload)); err != nil {
		return err
	}
	return s.setEntry(metadataKey(keyID), metaJSON)
}

// Get retrieves payload and metadata. A key whose primary entry exists but
// whose side-entry is missing or corrupt yields ErrInconsistent.
func (s *SystemStore) Get(keyID string) ([]byte, Metadata, error) {
	enc, ok, err := s.getEntry(keyID)
	if err != nil {
		return nil, Metadata{}, err
	}
	if !ok {
		return nil, Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, keyID)
	}

	payload, err := decodePayload(enc)
	if err != nil {
		return nil, Metadata{}, err
	}

	metaJSON, ok, err := s.getEntry(metadataKey(keyID))
	if err != nil {
		return nil, Metadata{}, err
	}
	if !ok {
		return nil, Metadata{}, fmt.Errorf("%w: missing metadata for %s", ErrInconsistent, keyID)
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
	err := gokeychain.DeleteGenericPasswordItem(s.service, keyID)
	if err != nil && !errors.Is(err, gokeychain.ErrorItemNotFound) {
		return fmt.Errorf("keychain delete %q: %w", keyID, err)
	}
	_ = gokeychain.DeleteGenericPasswordItem(s.service, metadataKey(keyID))
	return nil
}

// Exists reports whether the primary entry is present. Never errors; any
// lookup failure reads as absent.
func (s *SystemStore) Exists(keyID string) bool {
	_, ok, err := s.getEntry(keyID)
	return err == nil && ok
}

// List returns all key IDs stored under the vault's service namespace.
// Metadata side-entries are filtered out.
func (s *SystemStore) List() ([]string, error) {
	accounts, err := gokeychain.GetGenericPasswordAccounts(s.service)
	if err != nil {
		if errors.Is(err, gokeychain.ErrorItemNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("keychain list: %w", err)
	}

	keys := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if strings.HasSuffix(a, metadataSuffix) {
			continue
		}
		keys = append(keys, a)
	}
	return keys, nil
}
