// Package random produces URL-safe random identifiers.
package random

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// Alphabet is the case-sensitive alphanumeric set short codes are drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var ErrInvalidLength = errors.New("length must be positive")

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// NewRandomString returns a string of the given length drawn uniformly from Alphabet.
func NewRandomString(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b[i] = Alphabet[n.Int64()]
	}
	return string(b), nil
}
