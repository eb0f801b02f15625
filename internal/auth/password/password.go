// Package password wraps credential hashing behind a configurable-cost hasher.
package password

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies admin passwords with a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// NewHasher clamps cost to the range bcrypt accepts. A zero or out-of-range
// cost falls back to bcrypt.DefaultCost.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Hasher{cost: cost}
}

func (h Hasher) Cost() int {
	return h.cost
}

func (h Hasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h Hasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
