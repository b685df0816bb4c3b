package ipc

import (
	"testing"

	"github.com/starkalterego/identra/internal/securemem"
)

func TestParseRequestValid(t *testing.T) {
	req, err := ParseRequest([]byte(`{"type":"store_key","key_id":"k","payload":"AQID"}`))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Type != ReqStoreKey || req.KeyID != "k" {
		t.Errorf("unexpected request: %+v", req)
	}
	if len(req.Payload) != 3 || req.Payload[0] != 1 {
		t.Errorf("payload not base64-decoded: %v", req.Payload)
	}
}

func TestParseRequestUnitVariants(t *testing.T) {
	for _, typ := range []string{ReqPing, ReqListKeys, ReqShutdown} {
		if _, err := ParseRequest([]byte(`{"type":"` + typ + `"}`)); err != nil {
			t.Errorf("%s: %v", typ, err)
		}
	}
}

func TestParseRequestInvalidJSON(t *testing.T) {
	if _, err := ParseRequest([]byte("not json at all")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseRequestUnknownType(t *testing.T) {
	if _, err := ParseRequest([]byte(`{"type":"explode"}`)); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestParseRequestMissingKeyID(t *testing.T) {
	for _, typ := range []string{ReqStoreKey, ReqRetrieveKey, ReqDeleteKey, ReqKeyExists} {
		if _, err := ParseRequest([]byte(`{"type":"` + typ + `"}`)); err == nil {
			t.Errorf("%s: expected error for missing key_id", typ)
		}
	}
}

func TestRequestWipe(t *testing.T) {
	payload := []byte{1, 2, 3}
	req := Request{Type: ReqStoreKey, KeyID: "k", Payload: payload}
	req.Wipe()

	if req.Payload != nil {
		t.Error("expected nil payload after wipe")
	}
	for i, b := range payload {
		if b != 0 {
			t.Errorf("byte %d not wiped: %#x", i, b)
		}
	}
}

func TestResponseWipeWithSecret(t *testing.T) {
	raw := []byte{7, 7, 7}
	resp := NewKeyData(securemem.FromBytes(raw), nil, 0, nil)
	resp.Wipe()

	if resp.Payload != nil {
		t.Error("expected nil payload after wipe")
	}
	for i, b := range raw {
		if b != 0 {
			t.Errorf("backing byte %d not wiped: %#x", i, b)
		}
	}
}

func TestResponseWipeBare(t *testing.T) {
	raw := []byte{5, 5}
	resp := Response{Type: RespKeyData, Payload: raw}
	resp.Wipe()

	for i, b := range raw {
		if b != 0 {
			t.Errorf("byte %d not wiped: %#x", i, b)
		}
	}
}

func TestNewError(t *testing.T) {
	resp := NewError("retrieving key %s: %v", "k1", "boom")
	if resp.Type != RespError {
		t.Errorf("expected error type, got %q", resp.Type)
	}
	if resp.Message != "retrieving key k1: boom" {
		t.Errorf("unexpected message %q", resp.Message)
	}
}
