package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordChecker compares submitted passwords against a configured secret.
// The secret is either plaintext or a bcrypt hash.
type PasswordChecker struct {
	secret []byte
	hashed bool
}

// NewPasswordChecker creates a checker for secret
func NewPasswordChecker(secret string) *PasswordChecker {
	return &PasswordChecker{
		secret: []byte(secret),
		hashed: isBcryptHash(secret),
	}
}

func isBcryptHash(s string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// Matches reports whether password equals the configured secret
func (p *PasswordChecker) Matches(password string) bool {
	if len(p.secret) == 0 || password == "" {
		return false
	}
	if p.hashed {
		return bcrypt.CompareHashAndPassword(p.secret, []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare(p.secret, []byte(password)) == 1
}
