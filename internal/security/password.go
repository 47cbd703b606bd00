package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords with bcrypt at a fixed cost.
type PasswordHasher struct {
	cost  int
	dummy []byte
}

// NewPasswordHasher clamps cost into bcrypt's accepted range and precomputes a
// hash of the same cost used to burn equal time on unknown accounts.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("storefront-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}

	return &PasswordHasher{cost: cost, dummy: dummy}, nil
}

// Hash password hashes a plain text password with bcrypt.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Check compares a bcrypt hash with a plaintext password.
func (h *PasswordHasher) Check(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// CheckDummy does the work of a failed Check without a real hash.
func (h *PasswordHasher) CheckDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
}
