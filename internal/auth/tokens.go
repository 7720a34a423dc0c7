package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenManager issues and validates the service's access and refresh tokens.
// Both are stateless HS256 JWTs; a "typ" claim keeps them from being used
// interchangeably.
type TokenManager struct {
	secret     []byte
	ttl        time.Duration
	refreshTTL time.Duration
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, ttl, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, refreshTTL: refreshTTL}
}

// Issue signs an access token for the user.
func (m *TokenManager) Issue(userID int) (string, error) {
	return m.sign(userID, tokenTypeAccess, m.ttl)
}

// IssueRefresh signs a refresh token for the user.
func (m *TokenManager) IssueRefresh(userID int) (string, error) {
	return m.sign(userID, tokenTypeRefresh, m.refreshTTL)
}

func (m *TokenManager) sign(userID int, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.Itoa(userID),
		"typ": tokenType,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses an access token and returns the authenticated user id.
func (m *TokenManager) Validate(tokenString string) (int, error) {
	return m.validate(tokenString, tokenTypeAccess)
}

// ValidateRefresh parses a refresh token and returns the user id it was
// issued for. Access tokens are rejected.
func (m *TokenManager) ValidateRefresh(tokenString string) (int, error) {
	return m.validate(tokenString, tokenTypeRefresh)
}

func (m *TokenManager) validate(tokenString, tokenType string) (int, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != tokenType {
		return 0, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.Atoi(sub)
	if err != nil || userID == 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
