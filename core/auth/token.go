package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the absolute lifetime of a session token.
const TokenTTL = 12 * time.Hour

// ErrInvalidToken covers bad signatures, malformed tokens and expiry.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the payload of a session token.
type Claims struct {
	UserID  string `json:"id"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager creates a TokenManager. A nil clock means time.Now.
func NewTokenManager(secret string, now func() time.Time) *TokenManager {
	if now == nil {
		now = time.Now
	}
	return &TokenManager{secret: []byte(secret), now: now}
}

// Issue signs a token for the user that expires TokenTTL after issuance.
// JWT dates are whole seconds, so the issuance instant is taken at second
// granularity: a token issued at T is valid in [T, T+TokenTTL) with T
// truncated to the second.
func (m *TokenManager) Issue(userID string, isAdmin bool) (string, error) {
	issued := m.now().Truncate(time.Second)
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(TokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry and returns the identity in the token.
func (m *TokenManager) Parse(token string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return Identity{}, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return Identity{UserID: claims.UserID, IsAdmin: claims.IsAdmin}, nil
}
