package security

import (
	"crypto/rand"
	"math/big"
)

// RememberTokenLength is the length of the long-lived session token stored on a user.
const RememberTokenLength = 60

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomString returns n characters drawn uniformly from [A-Za-z0-9] using crypto/rand.
func RandomString(n int) (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = tokenAlphabet[idx.Int64()]
	}
	return string(b), nil
}

// NewRememberToken returns a fresh 60-character remember token.
func NewRememberToken() (string, error) {
	return RandomString(RememberTokenLength)
}
