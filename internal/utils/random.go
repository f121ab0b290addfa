package utils

import (
	"crypto/rand" // Cryptographically secure source
	"math/big"    // Bounds for rand.Int
)

// RandomString draws n symbols uniformly from alphabet
func RandomString(alphabet string, n int) (string, error) {
	bound := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, bound)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
