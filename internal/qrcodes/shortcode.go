package qrcodes

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	shortCodeLength   = 8
	shortCodeAttempts = 5
	base62Alphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

var alphabetSize = big.NewInt(int64(len(base62Alphabet)))

// NewShortCode returns a random base62 code for dynamic redirects.
func NewShortCode() (string, error) {
	buf := make([]byte, shortCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("generate short code: %w", err)
		}
		buf[i] = base62Alphabet[n.Int64()]
	}
	return string(buf), nil
}

// IsShortCode reports whether value could have been produced by NewShortCode.
func IsShortCode(value string) bool {
	if len(value) != shortCodeLength {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}
