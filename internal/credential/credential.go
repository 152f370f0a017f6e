package credential

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxSecretLength is the longest secret bcrypt accepts, in bytes.
const MaxSecretLength = 72

// ErrSecretTooLong is returned for secrets over MaxSecretLength bytes.
var ErrSecretTooLong = errors.New("secret exceeds 72 bytes")

// Hasher hashes and verifies customer PINs with bcrypt. The salt is embedded
// in the returned hash string.
type Hasher struct {
	cost int
}

// NewHasher builds a Hasher. Costs outside bcrypt's accepted range fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// CheckLength reports ErrSecretTooLong when secret cannot be hashed.
func CheckLength(secret string) error {
	if len(secret) > MaxSecretLength {
		return ErrSecretTooLong
	}
	return nil
}

// Hash returns a salted bcrypt hash of secret.
func (h *Hasher) Hash(secret string) (string, error) {
	if err := CheckLength(secret); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether secret matches hash. Malformed hashes never match.
func (h *Hasher) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
