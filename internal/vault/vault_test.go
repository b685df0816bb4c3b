package vault

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/starkalterego/identra/internal/ipc"
	"github.com/starkalterego/identra/internal/keychain"
)

func testVault() *Vault {
	v := New(keychain.NewMemoryStore())
	v.now = func() time.Time { return time.Unix(1767600000, 0) }
	return v
}

func TestPingAlwaysPongs(t *testing.T) {
	v := testVault()

	resp := v.Handle(ipc.Request{Type: ipc.ReqPing})
	if resp.Type != ipc.RespPong {
		t.Errorf("expected pong, got %q", resp.Type)
	}
}

func TestStoreAndRetrieve(t *testing.T) {
	v := testVault()

	store := v.Handle(ipc.Request{
		Type:     ipc.ReqStoreKey,
		KeyID:    "k1",
		Payload:  []byte{1, 2, 3},
		Metadata: map[string]string{"purpose": "test"},
	})
	if store.Type != ipc.RespSuccess {
		t.Fatalf("expected success, got %q (%s)", store.Type, store.Message)
	}

	resp := v.Handle(ipc.Request{Type: ipc.ReqRetrieveKey, KeyID: "k1"})
	if resp.Type != ipc.RespKeyData {
		t.Fatalf("expected key_data, got %q (%s)", resp.Type, resp.Message)
	}
	if !bytes.Equal(resp.Payload, []byte{1, 2, 3}) {
		t.Errorf("payload mismatch: %v", resp.Payload)
	}
	if resp.Metadata["purpose"] != "test" {
		t.Errorf("metadata mismatch: %v", resp.Metadata)
	}
	if resp.CreatedAt != 1767600000 {
		t.Errorf("expected stamped created_at, got %d", resp.CreatedAt)
	}
	if resp.ExpiresAt != nil {
		t.Errorf("expected no expiry, got %v", *resp.ExpiresAt)
	}
}

func TestStoreWipesRequestPayload(t *testing.T) {
	v := testVault()

	payload := []byte{9, 9, 9, 9}
	v.Handle(ipc.Request{Type: ipc.ReqStoreKey, KeyID: "k", Payload: payload})

	for i, b := range payload {
		if b != 0 {
			t.Fatalf("request payload byte %d not wiped: %#x", i, b)
		}
	}
}

func TestStoreReplacesInFull(t *testing.T) {
	v := testVault()

	v.Handle(ipc.Request{Type: ipc.ReqStoreKey, KeyID: "k", Payload: []byte("p1"),
		Metadata: map[string]string{"v": "1"}})
	v.Handle(ipc.Request{Type: ipc.ReqStoreKey, KeyID: "k", Payload: []byte("p2"),
		Metadata: map[string]string{"v": "2"}})

	resp := v.Handle(ipc.Request{Type: ipc.ReqRetrieveKey, KeyID: "k"})
	if string(resp.Payload) != "p2" {
		t.Errorf("expected p2, got %q", resp.Payload)
	}
	if resp.Metadata["v"] != "2" {
		t.Errorf("old metadata paired with new payload: %v", resp.Metadata)
	}
}

func TestRetrieveExpiresAtPassthrough(t *testing.T) {
	v := testVault()

	exp := int64(1893456000)
	v.Handle(ipc.Request{Type: ipc.ReqStoreKey, KeyID: "k", Payload: []byte("p"), ExpiresAt: &exp})

	resp := v.Handle(ipc.Request{Type: ipc.ReqRetrieveKey, KeyID: "k"})
	if resp.ExpiresAt == nil || *resp.ExpiresAt != exp {
		t.Errorf("expires_at not passed through: %v", resp.ExpiresAt)
	}
}

func TestRetrieveNotFound(t *testing.T) {
	v := testVault()

	resp := v.Handle(ipc.Request{Type: ipc.ReqRetrieveKey, KeyID: "missing"})
	if resp.Type != ipc.RespError {
		t.Fatalf("expected error, got %q", resp.Type)
	}
	if !strings.Contains(resp.Message, "key not found") {
		t.Errorf("expected not-found message, got %q", resp.Message)
	}
}

func TestDeleteThenExists(t *testing.T) {
	v := testVault()

	v.Handle(ipc.Request{Type: ipc.ReqStoreKey, KeyID: "k", Payload: []byte("p")})

	if resp := v.Handle(ipc.Request{Type: ipc.ReqKeyExists, KeyID: "k"}); !resp.Exists {
		t.Error("expected exists=true after store")
	}

	if resp := v.Handle(ipc.Request{Type: ipc.ReqDeleteKey, KeyID: "k"}); resp.Type != ipc.RespSuccess {
		t.Fatalf("expected success, got %q", resp.Type)
	}

	if resp := v.Handle(ipc.Request{Type: ipc.ReqKeyExists, KeyID: "k"}); resp.Exists {
		t.Error("expected exists=false after delete")
	}

	resp := v.Handle(ipc.Request{Type: ipc.ReqRetrieveKey, KeyID: "k"})
	if resp.Type != ipc.RespError || !strings.Contains(resp.Message, "key not found") {
		t.Errorf("expected not-found after delete, got %q (%s)", resp.Type, resp.Message)
	}
}

func TestKeyExistsNeverErrors(t *testing.T) {
	v := testVault()

	resp := v.Handle(ipc.Request{Type: ipc.ReqKeyExists, KeyID: "missing"})
	if resp.Type != ipc.RespExists {
		t.Fatalf("expected exists response, got %q", resp.Type)
	}
	if resp.Exists {
		t.Error("expected exists=false")
	}
}

func TestListKeys(t *testing.T) {
	v := testVault()

	v.Handle(ipc.Request{Type: ipc.ReqStoreKey, KeyID: "a", Payload: []byte("1")})
	v.Handle(ipc.Request{Type: ipc.ReqStoreKey, KeyID: "b", Payload: []byte("2")})

	resp := v.Handle(ipc.Request{Type: ipc.ReqListKeys})
	if resp.Type != ipc.RespKeyList {
		t.Fatalf("expected key_list, got %q (%s)", resp.Type, resp.Message)
	}
	if len(resp.Keys) != 2 || resp.Keys[0] != "a" || resp.Keys[1] != "b" {
		t.Errorf("unexpected keys: %v", resp.Keys)
	}
}

func TestListKeysEmptyVault(t *testing.T) {
	v := testVault()

	resp := v.Handle(ipc.Request{Type: ipc.ReqListKeys})
	if resp.Type != ipc.RespKeyList {
		t.Fatalf("expected key_list, got %q", resp.Type)
	}
	if resp.Keys == nil || len(resp.Keys) != 0 {
		t.Errorf("expected empty list, got %v", resp.Keys)
	}
}

// noListStore reports enumeration as unsupported, the way the Secret
// Service backend does.
type noListStore struct {
	keychain.Store
}

func (s noListStore) List() ([]string, error) {
	return nil, keychain.ErrUnsupported
}

func TestListKeysUnsupportedBackend(t *testing.T) {
	v := New(noListStore{keychain.NewMemoryStore()})

	resp := v.Handle(ipc.Request{Type: ipc.ReqListKeys})
	if resp.Type != ipc.RespError {
		t.Fatalf("expected error, got %q", resp.Type)
	}
	if !strings.HasPrefix(resp.Message, "unimplemented:") {
		t.Errorf("expected unimplemented class, got %q", resp.Message)
	}
}

func TestShutdown(t *testing.T) {
	v := testVault()

	resp := v.Handle(ipc.Request{Type: ipc.ReqShutdown})
	if resp.Type != ipc.RespShuttingDown {
		t.Errorf("expected shutting_down, got %q", resp.Type)
	}
}

func TestStateCounters(t *testing.T) {
	s := NewState()

	if s.Initialized() {
		t.Error("fresh state should not be initialized")
	}
	s.MarkInitialized()
	if !s.Initialized() {
		t.Error("expected initialized after mark")
	}

	if n := s.ConnOpened(); n != 1 {
		t.Errorf("expected 1 after first open, got %d", n)
	}
	if n := s.ConnOpened(); n != 2 {
		t.Errorf("expected 2 after second open, got %d", n)
	}
	if n := s.ConnClosed(); n != 1 {
		t.Errorf("expected 1 after close, got %d", n)
	}
	if n := s.ActiveConnections(); n != 1 {
		t.Errorf("expected 1 active, got %d", n)
	}
}
