// Package crypto provides the symmetric primitives vault callers use on
// payloads: ChaCha20-Poly1305 authenticated encryption and Argon2id key
// derivation. Thin wrappers over x/crypto — no original cryptographic
// design lives here.
package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the ChaCha20-Poly1305 key length in bytes.
	KeySize = chacha20poly1305.KeySize

	// NonceSize is the ChaCha20-Poly1305 nonce length in bytes.
	NonceSize = chacha20poly1305.NonceSize
)

// Seal encrypts plaintext with key and a fresh random nonce. The result is
// nonce || ciphertext.
func Seal(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a Seal result. Tampered or truncated input fails
// authentication.
func Open(key, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	if len(sealed) < NonceSize {
		return nil, errors.New("sealed data too short")
	}

	nonce, ciphertext := sealed[:NonceSize], sealed[NonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	return plaintext, nil
}
