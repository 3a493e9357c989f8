// Package crypto implements account password hashing for the identity provider.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// SaltLen is the per-account salt size in bytes.
const SaltLen = 16

// Params are Argon2id cost parameters.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultParams are tuned for interactive logins.
var DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 1, KeyLen: 32}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashPassword returns the Argon2id hash of password with DefaultParams.
func HashPassword(password, salt []byte) []byte {
	return DefaultParams.Hash(password, salt)
}

// VerifyPassword checks password against an expected DefaultParams hash.
func VerifyPassword(password, salt, expected []byte) bool {
	return DefaultParams.Verify(password, salt, expected)
}

// Hash returns the Argon2id hash of password using salt.
func (p Params) Hash(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// Verify compares in constant time.
func (p Params) Verify(password, salt, expected []byte) bool {
	got := p.Hash(password, salt)
	return subtle.ConstantTimeCompare(got, expected) == 1
}

// NewCredential generates a fresh salt and hashes password with it.
func (p Params) NewCredential(password []byte) (hash, salt []byte, err error) {
	salt, err = RandBytes(SaltLen)
	if err != nil {
		return nil, nil, err
	}
	return p.Hash(password, salt), salt, nil
}
