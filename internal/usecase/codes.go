package usecase

import (
	"crypto/rand"
	"math/big"
)

const (
	signupCodeLength = 6
	resetTokenLength = 8

	digits       = "0123456789"
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// CodeGenerator issues one-time codes.
type CodeGenerator interface {
	SignupCode() (string, error)
	ResetToken() (string, error)
}

// CryptoCodes draws codes from crypto/rand.
type CryptoCodes struct{}

func (CryptoCodes) SignupCode() (string, error) {
	return randomString(digits, signupCodeLength)
}

func (CryptoCodes) ResetToken() (string, error) {
	return randomString(alphanumeric, resetTokenLength)
}

func randomString(alphabet string, n int) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
