package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// RandomToken returns n random bytes, hex encoded.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewResetToken returns a reset token for the user's mailbox and the hash we keep.
func NewResetToken() (plain, hash string, err error) {
	plain, err = RandomToken(32)
	if err != nil {
		return "", "", err
	}
	return plain, HashToken(plain), nil
}

// HashToken is the one-way digest stored in place of a bearer secret.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
