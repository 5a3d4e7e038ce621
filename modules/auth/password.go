package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// defaultHashCost balances login latency against offline brute-force
// resistance. Overridable through BCRYPT_COST so dev setups can run cheaper.
const defaultHashCost = 12

// PasswordHasher derives and checks bcrypt digests for stored credentials.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher at the given cost. Costs outside
// bcrypt's supported range fall back to the default.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultHashCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash derives a salted digest of the plaintext password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether the plaintext password matches the stored digest.
func (h *PasswordHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
