package helpers

import (
	"crypto/rand"
	"encoding/base64"
)

// ResetTokenBytes is the entropy of password reset tokens.
const ResetTokenBytes = 32

// RandomToken returns n cryptographically random bytes encoded as unpadded base64url.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenResetToken generates a single-use password reset token.
func GenResetToken() (string, error) {
	return RandomToken(ResetTokenBytes)
}
