// Package ipc implements the vault's local inter-process protocol: a
// line-oriented exchange of JSON messages over a Unix domain socket (POSIX)
// or named pipe (Windows).
//
// Framing is newline-delimited UTF-8 JSON, one message per line, exactly one
// response per request. Every message carries a "type" tag; payload bytes
// travel base64-encoded inside JSON strings. The same framing is spoken by
// the daemon's Server and by the Client stub used from the CLI, the tunnel
// gateway and the desktop app.
package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/starkalterego/identra/internal/securemem"
)

// Request types.
const (
	ReqPing        = "ping"
	ReqStoreKey    = "store_key"
	ReqRetrieveKey = "retrieve_key"
	ReqDeleteKey   = "delete_key"
	ReqKeyExists   = "key_exists"
	ReqListKeys    = "list_keys"
	ReqShutdown    = "shutdown"
)

// Response types.
const (
	RespPong         = "pong"
	RespSuccess      = "success"
	RespKeyData      = "key_data"
	RespKeyList      = "key_list"
	RespExists       = "exists"
	RespError        = "error"
	RespShuttingDown = "shutting_down"
)

// Request is a single protocol request. Fields beyond Type are set
// depending on the request type.
type Request struct {
	Type      string            `json:"type"`
	KeyID     string            `json:"key_id,omitempty"`
	Payload   []byte            `json:"payload,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	ExpiresAt *int64            `json:"expires_at,omitempty"`
}

// Wipe zeroes any secret material carried by the request. Called once the
// request has been dispatched.
func (r *Request) Wipe() {
	securemem.Wipe(r.Payload)
	r.Payload = nil
}

// Response is a single protocol response.
type Response struct {
	Type      string            `json:"type"`
	Payload   []byte            `json:"payload,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt int64             `json:"created_at,omitempty"`
	ExpiresAt *int64            `json:"expires_at,omitempty"`
	Keys      []string          `json:"keys,omitempty"`
	Exists    bool              `json:"exists,omitempty"`
	Message   string            `json:"message,omitempty"`

	// secret pins the payload's pages while the response is in flight.
	secret *securemem.Buffer
}

// NewKeyData builds a key_data response whose payload stays page-pinned
// until Wipe. The buffer's ownership passes to the response.
func NewKeyData(buf *securemem.Buffer, custom map[string]string, createdAt int64, expiresAt *int64) Response {
	return Response{
		Type:      RespKeyData,
		Payload:   buf.Bytes(),
		Metadata:  custom,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
		secret:    buf,
	}
}

// NewError builds an error response.
func NewError(format string, args ...any) Response {
	return Response{Type: RespError, Message: fmt.Sprintf(format, args...)}
}

// Wipe zeroes any secret material carried by the response. Called after the
// response has been serialized and written.
func (r *Response) Wipe() {
	if r.secret != nil {
		r.secret.Destroy()
		r.secret = nil
		r.Payload = nil
		return
	}
	securemem.Wipe(r.Payload)
	r.Payload = nil
}

var validRequests = map[string]bool{
	ReqPing:        true,
	ReqStoreKey:    true,
	ReqRetrieveKey: true,
	ReqDeleteKey:   true,
	ReqKeyExists:   true,
	ReqListKeys:    true,
	ReqShutdown:    true,
}

// keyedRequests require a non-empty key ID.
var keyedRequests = map[string]bool{
	ReqStoreKey:    true,
	ReqRetrieveKey: true,
	ReqDeleteKey:   true,
	ReqKeyExists:   true,
}

// ParseRequest decodes and validates one request line. A parse failure is a
// protocol error: the server answers it on the same connection without
// closing it.
func ParseRequest(line []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if !validRequests[req.Type] {
		return Request{}, fmt.Errorf("unknown request type %q", req.Type)
	}
	if keyedRequests[req.Type] && req.KeyID == "" {
		return Request{}, fmt.Errorf("%s requires key_id", req.Type)
	}
	return req, nil
}
