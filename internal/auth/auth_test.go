package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenManager_IssueAndValidate(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, expires, err := m.Issue("admin-gate", RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "admin-gate", claims.Subject)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute)
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issuedAt }

	token, _, err := m.Issue("kyc-gate", RoleKYCReviewer)
	require.NoError(t, err)

	m.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", time.Hour).Issue("admin-gate", RoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsUnknownRole(t *testing.T) {
	claims := Claims{
		Role: "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	require.NoError(t, err)

	_, err = NewTokenManager("s", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	_, err := NewTokenManager("s", time.Hour).Validate("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordChecker_Plaintext(t *testing.T) {
	p := NewPasswordChecker("open-sesame")

	assert.True(t, p.Matches("open-sesame"))
	assert.False(t, p.Matches("open-sesame "))
	assert.False(t, p.Matches(""))
}

func TestPasswordChecker_Bcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("reviewer-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	p := NewPasswordChecker(string(hash))
	assert.True(t, p.Matches("reviewer-pass"))
	assert.False(t, p.Matches(string(hash)))
	assert.False(t, p.Matches("wrong"))
}

func TestPasswordChecker_EmptySecretNeverMatches(t *testing.T) {
	assert.False(t, NewPasswordChecker("").Matches("anything"))
}
