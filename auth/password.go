// Package auth wraps password hashing and JWT issuance for the coordinator
// and metadata participant's HTTP surfaces. Adapted from marmos91-dittofs's
// auth package, which is the only repo in the pack with a real signup/login
// flow to learn the idiom from — the teacher has none.
package auth

import "golang.org/x/crypto/bcrypt"

// MinPasswordLength matches dittofs's own signup validation constant.
const MinPasswordLength = 8

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
