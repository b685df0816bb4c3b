package crypto

import (
	"crypto/rand"
	"fmt"

	"github.com/starkalterego/identra/internal/securemem"
)

// NewKey generates a random KeySize-byte key in a secure buffer.
func NewKey() (*securemem.Buffer, error) {
	buf, err := securemem.Alloc(KeySize)
	if err != nil {
		return nil, err
	}
	if _, err := rand.Read(buf.Bytes()); err != nil {
		buf.Destroy()
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return buf, nil
}

// NewSalt generates a random salt for key derivation.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}
