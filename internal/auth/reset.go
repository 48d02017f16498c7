package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// IssueResetToken generates a random one-time secret. The plaintext goes to
// the user out-of-band; only the digest is ever persisted, so a leaked
// database row cannot be replayed.
func (ts *TokenService) IssueResetToken() (plain, hashed string, err error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plain = hex.EncodeToString(buf)
	return plain, HashResetToken(plain), nil
}

// VerifyResetToken reports whether the supplied plaintext matches the
// stored hash and the stored expiry has not passed.
func (ts *TokenService) VerifyResetToken(plain, storedHash string, storedExpiry time.Time) bool {
	if storedHash == "" || plain == "" {
		return false
	}
	return HashResetToken(plain) == storedHash && time.Now().Before(storedExpiry)
}

// HashResetToken computes the persisted digest of a reset token.
func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
