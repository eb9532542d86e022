package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "type" claim. Session tokens authenticate API
// requests; reset tokens are only good for the password-reset flow.
const (
	TypeSession = "session"
	TypeReset   = "reset"
)

type Claims struct {
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret        []byte
	sessionExpiry time.Duration
	resetExpiry   time.Duration
	issuer        string
}

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

func NewManager(secret string, sessionExpiry, resetExpiry time.Duration, issuer string) *Manager {
	return &Manager{
		secret:        []byte(secret),
		sessionExpiry: sessionExpiry,
		resetExpiry:   resetExpiry,
		issuer:        issuer,
	}
}

// GenerateSession issues the login token carrying user identity claims.
func (m *Manager) GenerateSession(userID, email, fullName string) (string, error) {
	if userID == "" || email == "" {
		return "", ErrInvalidToken
	}
	return m.generate(Claims{
		Email:    email,
		FullName: fullName,
		Type:     TypeSession,
	}, userID, m.sessionExpiry)
}

// GenerateReset issues the short-lived password-reset token.
func (m *Manager) GenerateReset(userID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidToken
	}
	return m.generate(Claims{Type: TypeReset}, userID, m.resetExpiry)
}

func (m *Manager) generate(claims Claims, subject string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(m.secret)
}

// ValidateSession parses a session token and returns its claims.
func (m *Manager) ValidateSession(tokenString string) (*Claims, error) {
	return m.validate(tokenString, TypeSession)
}

// ValidateReset parses a password-reset token and returns its claims.
func (m *Manager) ValidateReset(tokenString string) (*Claims, error) {
	return m.validate(tokenString, TypeReset)
}

func (m *Manager) validate(tokenString, wantType string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != wantType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenFromHeader extracts the bearer token from an Authorization header value.
func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}
