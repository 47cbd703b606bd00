package security

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}

	hash, err := h.Hash("pw1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if hash == "pw1" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	if err := h.Check(hash, "pw1"); err != nil {
		t.Fatalf("expected matching password, got %v", err)
	}

	if err := h.Check(hash, "wrong"); err == nil {
		t.Fatalf("expected mismatch for a different password")
	}
}

func TestPasswordHasher_SaltPerHash(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}

	a, _ := h.Hash("same")
	b, _ := h.Hash("same")

	if a == b {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	h, err := NewPasswordHasher(1)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}

	if h.cost != bcrypt.MinCost {
		t.Fatalf("got cost %d, want %d", h.cost, bcrypt.MinCost)
	}

	hash, _ := h.Hash("pw")
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != bcrypt.MinCost {
		t.Fatalf("hash cost = %d (%v), want %d", cost, err, bcrypt.MinCost)
	}

	// must not panic or block
	h.CheckDummy("anything")
}
