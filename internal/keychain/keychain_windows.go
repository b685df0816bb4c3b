//go:build windows

package keychain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danieljoos/wincred"
	"golang.org/x/sys/windows"
)

// SystemStore provides key storage in the Windows Credential Manager.
// Entries are generic credentials whose target names carry the service
// namespace as a prefix, "identra-vault/<key ID>".
type SystemStore struct {
	service string
}

// NewSystemStore creates a Credential-Manager-backed key store.
func NewSystemStore() *SystemStore {
	return &SystemStore{service: ServiceName}
}

func (s *SystemStore) target(account string) string {
	return s.service + "/" + account
}

func (s *SystemStore) setEntry(account, value string) error {
	cred := wincred.NewGenericCredential(s.target(account))
	cred.CredentialBlob = []byte(value)
	cred.Persist = wincred.PersistLocalMachine
	if err := cred.Write(); err != nil {
		return fmt.Errorf("credential write %q: %w", account, err)
	}
	return nil
}

func (s *SystemStore) getEntry(account string) (string, bool, error) {
	cred, err := wincred.GetGenericCredential(s.target(account))
	if err != nil {
		if errors.Is(err, windows.ERROR_NOT_FOUND) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("credential read %q: %w", account, err)
	}
	return string(cred.CredentialBlob), true, nil
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
	cred, err := wincred.GetGenericCredential(s.target(keyID))
	if err != nil {
		if errors.Is(err, windows.ERROR_NOT_FOUND) {
			return nil
		}
		return fmt.Errorf("credential read %q: %w", keyID, err)
	}
	if err := cred.Delete(); err != nil {
		return fmt.Errorf("credential delete %q: %w", keyID, err)
	}
	if metaCred, err := wincred.GetGenericCredential(s.target(metadataKey(keyID))); err == nil {
		_ = metaCred.Delete()
	}
	return nil
}

// Exists reports whether the primary entry is present. Never errors; any
// lookup failure reads as absent.
func (s *SystemStore) Exists(keyID string) bool {
	_, ok, err := s.getEntry(keyID)
	return err == nil && ok
}

// List enumerates credentials and returns the key IDs under the vault's
// service namespace. Metadata side-entries are filtered out.
func (s *SystemStore) List() ([]string, error) {
	creds, err := wincred.List()
	if err != nil {
		return nil, fmt.Errorf("credential list: %w", err)
	}

	prefix := s.service + "/"
	var keys []string
	for _, c := range creds {
		if !strings.HasPrefix(c.TargetName, prefix) {
			continue
		}
		account := strings.TrimPrefix(c.TargetName, prefix)
		if strings.HasSuffix(account, metadataSuffix) {
			continue
		}
		keys = append(keys, account)
	}
	return keys, nil
}
