// Package crypto implements server-side password hashing and verification.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// SaltLen is the per-user salt size in bytes.
const SaltLen = 16

// Params are Argon2id cost parameters.
type Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultParams are tuned for server-side hashing (64 MB, 3 passes).
var DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 1, KeyLen: 32}

// Hasher hashes and verifies passwords with fixed parameters.
type Hasher struct{ p Params }

// NewHasher returns a Hasher; zero params mean DefaultParams.
func NewHasher(p Params) Hasher {
	if p == (Params{}) {
		p = DefaultParams
	}
	return Hasher{p: p}
}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// NewSalt returns a fresh random salt.
func NewSalt() ([]byte, error) { return RandBytes(SaltLen) }

// Hash returns the Argon2id hash of password using salt.
func (h Hasher) Hash(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, h.p.Time, h.p.Memory, h.p.Threads, h.p.KeyLen)
}

// Verify reports whether password matches the expected hash, in constant time.
func (h Hasher) Verify(password string, salt, expected []byte) bool {
	got := h.Hash(password, salt)
	return subtle.ConstantTimeCompare(got, expected) == 1
}
