package utils

import (
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"
)

var bcryptCost atomic.Int64

func init() {
	bcryptCost.Store(int64(bcrypt.DefaultCost))
}

// SetBcryptCost changes the work factor for new hashes. Out-of-range values are ignored.
func SetBcryptCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return
	}
	bcryptCost.Store(int64(cost))
}

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), int(bcryptCost.Load()))
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares password against a bcrypt hash in constant time.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
