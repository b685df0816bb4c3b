package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
)

// RemoteError is an error response reported by the daemon.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "vault: " + e.Message
}

// KeyData is the result of a successful key retrieval.
type KeyData struct {
	Payload   []byte
	Custom    map[string]string
	CreatedAt int64
	ExpiresAt *int64
}

// Client is the stub local processes use to talk to the vault daemon. It is
// safe for concurrent use; requests on one client are serialized, matching
// the one-in-flight-per-connection protocol.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to the vault daemon at the given endpoint.
func Dial(endpoint string) (*Client, error) {
	conn, err := dialEndpoint(endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to vault daemon: %w (is identra daemon running?)", err)
	}
	return &Client{conn: conn, r: bufio.NewReader(conn)}, nil
}

// DialDefault connects to the platform's well-known vault endpoint.
func DialDefault() (*Client, error) {
	return Dial(DefaultEndpoint)
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(req Request) (Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encoding request: %w", err)
	}
	data = append(data, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.conn.Write(data); err != nil {
		return Response{}, fmt.Errorf("sending request: %w", err)
	}

	line, err := c.r.ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("reading response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decoding response: %w", err)
	}
	if resp.Type == RespError {
		return Response{}, &RemoteError{Message: resp.Message}
	}
	return resp, nil
}

func (c *Client) expect(req Request, respType string) (Response, error) {
	resp, err := c.roundTrip(req)
	if err != nil {
		return Response{}, err
	}
	if resp.Type != respType {
		return Response{}, fmt.Errorf("unexpected response %q to %s", resp.Type, req.Type)
	}
	return resp, nil
}

// Ping checks the daemon is alive.
func (c *Client) Ping() error {
	_, err := c.expect(Request{Type: ReqPing}, RespPong)
	return err
}

// StoreKey stores payload and metadata under keyID, replacing any previous
// value in full.
func (c *Client) StoreKey(keyID string, payload []byte, custom map[string]string, expiresAt *int64) error {
	_, err := c.expect(Request{
		Type:      ReqStoreKey,
		KeyID:     keyID,
		Payload:   payload,
		Metadata:  custom,
		ExpiresAt: expiresAt,
	}, RespSuccess)
	return err
}

// RetrieveKey fetches payload and metadata for keyID.
func (c *Client) RetrieveKey(keyID string) (*KeyData, error) {
	resp, err := c.expect(Request{Type: ReqRetrieveKey, KeyID: keyID}, RespKeyData)
	if err != nil {
		return nil, err
	}
	return &KeyData{
		Payload:   resp.Payload,
		Custom:    resp.Metadata,
		CreatedAt: resp.CreatedAt,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

// DeleteKey removes keyID and its metadata.
func (c *Client) DeleteKey(keyID string) error {
	_, err := c.expect(Request{Type: ReqDeleteKey, KeyID: keyID}, RespSuccess)
	return err
}

// KeyExists reports whether keyID is stored.
func (c *Client) KeyExists(keyID string) (bool, error) {
	resp, err := c.expect(Request{Type: ReqKeyExists, KeyID: keyID}, RespExists)
	if err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// ListKeys enumerates stored key IDs. Backends without an enumeration API
// yield a RemoteError rather than an empty list.
func (c *Client) ListKeys() ([]string, error) {
	resp, err := c.expect(Request{Type: ReqListKeys}, RespKeyList)
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

// Shutdown asks the daemon to stop serving this connection after
// acknowledging. Other connections are unaffected.
func (c *Client) Shutdown() error {
	_, err := c.expect(Request{Type: ReqShutdown}, RespShuttingDown)
	return err
}
