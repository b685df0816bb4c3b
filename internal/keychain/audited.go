package keychain

import (
	"fmt"

	"github.com/starkalterego/identra/internal/audit"
)

// AuditedStore wraps a Store and records every key operation to the audit
// log. Audit logging is best-effort: a failure to log never blocks the
// underlying operation.
type AuditedStore struct {
	inner Store
	audit *audit.Logger
	actor string // "cli" or "daemon"
}

// NewAuditedStore wraps an existing store with audit logging.
func NewAuditedStore(inner Store, auditLog *audit.Logger, actor string) *AuditedStore {
	return &AuditedStore{inner: inner, audit: auditLog, actor: actor}
}

func (s *AuditedStore) Set(keyID string, payload []byte, meta Metadata) error {
	err := s.inner.Set(keyID, payload, meta)
	s.log(audit.ActionKeyStore, keyID, err)
	if err != nil {
		return fmt.Errorf("audited store set: %w", err)
	}
	return nil
}

func (s *AuditedStore) Get(keyID string) ([]byte, Metadata, error) {
	payload, meta, err := s.inner.Get(keyID)
	s.log(audit.ActionKeyRetrieve, keyID, err)
	if err != nil {
		return nil, Metadata{}, err
	}
	return payload, meta, nil
}

func (s *AuditedStore) Delete(keyID string) error {
	err := s.inner.Delete(keyID)
	s.log(audit.ActionKeyDelete, keyID, err)
	if err != nil {
		return fmt.Errorf("audited store delete: %w", err)
	}
	return nil
}

func (s *AuditedStore) Exists(keyID string) bool {
	return s.inner.Exists(keyID)
}

func (s *AuditedStore) List() ([]string, error) {
	keys, err := s.inner.List()
	s.log(audit.ActionKeyList, "", err)
	return keys, err
}

func (s *AuditedStore) log(action audit.Action, keyID string, opErr error) {
	entry := audit.Entry{
		Action: action,
		KeyID:  keyID,
		Actor:  s.actor,
	}
	if opErr != nil {
		entry.Error = opErr.Error()
	}
	_ = s.audit.Log(entry)
}
