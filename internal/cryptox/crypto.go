// Package cryptox wraps password hashing for stored admin credentials.
package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used when none is configured.
const DefaultCost = 10

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("password is empty")

func normalizeCost(cost int) int {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return DefaultCost
	}
	return cost
}

// HashPassword returns a salted bcrypt hash of password.
// Costs outside bcrypt's range fall back to DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), normalizeCost(cost))
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. The comparison is
// constant-time inside bcrypt.
func CheckPassword(hash, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DummyHash hashes a throwaway password at cost. Comparing against it when a
// username does not exist costs as much as a failed check of a real hash
// made at the same cost.
func DummyHash(cost int) string {
	return mustHash("gophblog-timing-equaliser", normalizeCost(cost))
}

// BurnPasswordCheck compares password against hash and drops the result.
func BurnPasswordCheck(hash, password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func mustHash(password string, cost int) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}
