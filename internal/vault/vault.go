// Package vault implements the daemon's request core: it owns the keychain
// backend, interprets protocol requests and shapes responses and errors.
//
// The core is stateless across requests. No request is retried; every
// backend error is surfaced to the caller wrapped with context. Errors in
// handling one request never escape as panics or affect other connections —
// they become error responses.
package vault

import (
	"errors"
	"time"

	"github.com/starkalterego/identra/internal/ipc"
	"github.com/starkalterego/identra/internal/keychain"
	"github.com/starkalterego/identra/internal/securemem"
)

// Vault dispatches protocol requests against a keychain backend.
type Vault struct {
	store keychain.Store

	// now is the clock for created_at stamps, swapped in tests.
	now func() time.Time
}

// New creates a vault core over the given backend.
func New(store keychain.Store) *Vault {
	return &Vault{store: store, now: time.Now}
}

// Handle dispatches one request and returns its response. Implements
// ipc.Handler.
func (v *Vault) Handle(req ipc.Request) ipc.Response {
	switch req.Type {
	case ipc.ReqPing:
		// Always answers, regardless of backend state.
		return ipc.Response{Type: ipc.RespPong}
	case ipc.ReqStoreKey:
		return v.storeKey(req)
	case ipc.ReqRetrieveKey:
		return v.retrieveKey(req)
	case ipc.ReqDeleteKey:
		return v.deleteKey(req)
	case ipc.ReqKeyExists:
		return v.keyExists(req)
	case ipc.ReqListKeys:
		return v.listKeys()
	case ipc.ReqShutdown:
		return ipc.Response{Type: ipc.RespShuttingDown}
	default:
		// ParseRequest rejects unknown types before dispatch.
		return ipc.NewError("unknown request type %q", req.Type)
	}
}

func (v *Vault) storeKey(req ipc.Request) ipc.Response {
	buf := securemem.FromBytes(req.Payload)
	defer buf.Destroy()

	meta := keychain.Metadata{
		CreatedAt: v.now().Unix(),
		ExpiresAt: req.ExpiresAt,
		Custom:    req.Metadata,
	}
	if err := v.store.Set(req.KeyID, buf.Bytes(), meta); err != nil {
		return ipc.NewError("storing key %s: %v", req.KeyID, err)
	}
	return ipc.Response{Type: ipc.RespSuccess}
}

func (v *Vault) retrieveKey(req ipc.Request) ipc.Response {
	payload, meta, err := v.store.Get(req.KeyID)
	if err != nil {
		if errors.Is(err, keychain.ErrNotFound) {
			return ipc.NewError("key not found: %s", req.KeyID)
		}
		return ipc.NewError("retrieving key %s: %v", req.KeyID, err)
	}
	// Ownership of the payload passes to the response; the server wipes it
	// once the bytes are on the wire.
	return ipc.NewKeyData(securemem.FromBytes(payload), meta.Custom, meta.CreatedAt, meta.ExpiresAt)
}

func (v *Vault) deleteKey(req ipc.Request) ipc.Response {
	if err := v.store.Delete(req.KeyID); err != nil {
		return ipc.NewError("deleting key %s: %v", req.KeyID, err)
	}
	return ipc.Response{Type: ipc.RespSuccess}
}

func (v *Vault) keyExists(req ipc.Request) ipc.Response {
	// Never an error response; a backend lookup failure reads as absent.
	return ipc.Response{Type: ipc.RespExists, Exists: v.store.Exists(req.KeyID)}
}

func (v *Vault) listKeys() ipc.Response {
	keys, err := v.store.List()
	if err != nil {
		if errors.Is(err, keychain.ErrUnsupported) {
			// Distinct unimplemented class — never masked as an empty list.
			return ipc.NewError("unimplemented: %v", err)
		}
		return ipc.NewError("listing keys: %v", err)
	}
	if keys == nil {
		keys = []string{}
	}
	return ipc.Response{Type: ipc.RespKeyList, Keys: keys}
}
