package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultTTL is the lifetime of an admin session token.
	DefaultTTL = 24 * time.Hour

	RoleAdmin = "admin"
	issuer    = "merch-order-admin"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotConfigured      = errors.New("admin credentials not configured")
	ErrInvalidToken       = errors.New("invalid token")
)

// Config holds the single admin identity. PasswordHash, when set, is a
// bcrypt hash and takes precedence over Password.
type Config struct {
	AdminEmail    string
	AdminPassword string
	PasswordHash  string
	Secret        string
	TTL           time.Duration
}

// Claims are the JWT claims of an admin session.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 session tokens.
type Authenticator struct {
	cfg     Config
	nowFunc func() time.Time
}

func NewAuthenticator(cfg Config) *Authenticator {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Authenticator{cfg: cfg, nowFunc: time.Now}
}

// Login checks the credentials and returns a signed token with its expiry.
func (a *Authenticator) Login(email, password string) (string, time.Time, error) {
	if a.cfg.AdminEmail == "" || a.cfg.Secret == "" || (a.cfg.AdminPassword == "" && a.cfg.PasswordHash == "") {
		return "", time.Time{}, ErrNotConfigured
	}
	if !strings.EqualFold(strings.TrimSpace(email), a.cfg.AdminEmail) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if !a.checkPassword(password) {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := a.nowFunc()
	exp := now.Add(a.cfg.TTL)
	claims := Claims{
		Email: a.cfg.AdminEmail,
		Role:  RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (a *Authenticator) checkPassword(password string) bool {
	if a.cfg.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(a.cfg.PasswordHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(a.cfg.AdminPassword)) == 1
}

// Verify parses a token and returns its claims if it is a valid admin session.
func (a *Authenticator) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(a.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.nowFunc),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Role != RoleAdmin {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
