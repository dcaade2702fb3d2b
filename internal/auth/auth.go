// Package auth handles password hashing and JWT issuance/validation.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/julianstephens/habitcoach/internal/constants"
)

var (
	// ErrInvalidCredentials is returned for a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for missing, expired, malformed, or
	// wrong-type tokens.
	ErrInvalidToken = errors.New("invalid token")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Manager issues and validates tokens with a shared HS256 secret.
type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext password against its bcrypt hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type claims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// NewAccessToken issues a short-lived bearer token for the user.
func (m *Manager) NewAccessToken(userID string) (string, error) {
	return m.sign(userID, tokenTypeAccess, constants.AccessTokenTTL)
}

// NewRefreshToken issues a long-lived refresh token for the user.
func (m *Manager) NewRefreshToken(userID string) (string, error) {
	return m.sign(userID, tokenTypeRefresh, constants.RefreshTokenTTL)
}

func (m *Manager) sign(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken returns the subject user id of a valid access token.
func (m *Manager) ValidateAccessToken(token string) (string, error) {
	return m.validate(token, tokenTypeAccess)
}

// ValidateRefreshToken returns the subject user id of a valid refresh token.
func (m *Manager) ValidateRefreshToken(token string) (string, error) {
	return m.validate(token, tokenTypeRefresh)
}

func (m *Manager) validate(tokenStr, wantType string) (string, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if c.TokenType != wantType || c.Subject == "" {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}

// HashToken returns the sha256 hex digest of a token. The digest, not
// the token itself, is what gets persisted for revocation checks.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
