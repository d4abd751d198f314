package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() Config {
	return Config{
		AdminEmail:    "admin@example.com",
		AdminPassword: "s3cret",
		Secret:        "signing-key",
	}
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	a := NewAuthenticator(testConfig())
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a.nowFunc = func() time.Time { return now }

	token, exp, err := a.Login("Admin@Example.com ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), exp)

	claims, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestLogin_Rejects(t *testing.T) {
	a := NewAuthenticator(testConfig())

	_, _, err := a.Login("other@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = a.Login("admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = NewAuthenticator(Config{}).Login("admin@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLogin_BcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-pw"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.AdminPassword = ""
	cfg.PasswordHash = string(hash)
	a := NewAuthenticator(cfg)

	_, _, err = a.Login("admin@example.com", "hashed-pw")
	assert.NoError(t, err)
	_, _, err = a.Login("admin@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerify_Expired(t *testing.T) {
	a := NewAuthenticator(testConfig())
	issued := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a.nowFunc = func() time.Time { return issued }
	token, _, err := a.Login("admin@example.com", "s3cret")
	require.NoError(t, err)

	a.nowFunc = func() time.Time { return issued.Add(25 * time.Hour) }
	_, err = a.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecretOrAlg(t *testing.T) {
	a := NewAuthenticator(testConfig())

	other := NewAuthenticator(Config{AdminEmail: "admin@example.com", AdminPassword: "s3cret", Secret: "different"})
	token, _, err := other.Login("admin@example.com", "s3cret")
	require.NoError(t, err)
	_, err = a.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = a.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
