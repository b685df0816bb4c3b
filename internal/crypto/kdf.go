package crypto

import (
	"golang.org/x/crypto/argon2"

	"github.com/starkalterego/identra/internal/securemem"
)

// SaltSize is the salt length in bytes for key derivation.
const SaltSize = 32

// KDFParams tune Argon2id cost.
type KDFParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultKDFParams is the production preset: 64 MiB, 3 iterations, 4 lanes.
var DefaultKDFParams = KDFParams{
	MemoryKiB:   64 * 1024,
	Iterations:  3,
	Parallelism: 4,
}

// FastKDFParams is a low-cost preset for tests.
var FastKDFParams = KDFParams{
	MemoryKiB:   8 * 1024,
	Iterations:  1,
	Parallelism: 1,
}

// DeriveKey stretches a passphrase into a KeySize-byte key with Argon2id.
// The key comes back in a secure buffer; the caller owns its destruction.
func DeriveKey(passphrase, salt []byte, p KDFParams) *securemem.Buffer {
	key := argon2.IDKey(passphrase, salt, p.Iterations, p.MemoryKiB, p.Parallelism, KeySize)
	return securemem.FromBytes(key)
}
