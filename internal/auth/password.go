// Package auth provides the password hashing step applied to every user
// credential write. Hashing is an explicit call made by the user service
// before persisting, never an implicit lifecycle hook.
package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the salted bcrypt hash of a plaintext password.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
// bcrypt's comparison does not leak timing proportional to match length.
func CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
