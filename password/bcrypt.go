// Package password implements credential hashing and verification with bcrypt.
//
// The work factor has an enforced floor of [MinCost]; configurations below it
// are rejected at construction. Verification treats a malformed stored hash as
// an ordinary mismatch rather than a distinct error, so callers cannot leak
// which stored records are corrupt. Plaintext passwords are never logged and
// never retained beyond the call.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinCost is the lowest accepted bcrypt cost.
	MinCost = 10
	// MaxPasswordBytes is bcrypt's input limit; longer passwords are rejected
	// before hashing so they cannot be silently truncated.
	MaxPasswordBytes = 72
)

// ErrPasswordTooLong is returned by Hash when the plaintext exceeds [MaxPasswordBytes].
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// Hasher hashes and verifies passwords at a fixed cost. Safe for concurrent use.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given cost. Costs below [MinCost] or
// above bcrypt's maximum are rejected.
func NewHasher(cost int) (*Hasher, error) {
	if cost < MinCost {
		return nil, errors.New("password cost must be >= 10")
	}
	if cost > bcrypt.MaxCost {
		return nil, errors.New("password cost exceeds bcrypt maximum")
	}

	return &Hasher{cost: cost}, nil
}

// Cost reports the configured work factor.
func (h *Hasher) Cost() int { return h.cost }

// Hash derives a salted hash of the plaintext. The salt is generated inside
// bcrypt from crypto/rand.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether plaintext matches the stored hash. Any decode or
// comparison failure, including a malformed hash, is a mismatch.
func (h *Hasher) Verify(plaintext, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(plaintext)) == nil
}
