package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 72 * time.Hour

// ErrInvalidToken covers every reason a token is rejected.
var ErrInvalidToken = errors.New("invalid token")

// Manager signs and validates HS256 tokens with a single secret.
type Manager struct {
	secret []byte
	now    func() time.Time
}

// NewManager returns a Manager for secret.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret), now: time.Now}
}

// GenerateToken creates a new JWT for a given user ID.
func (m *Manager) GenerateToken(userID int64) (string, error) {
	// 1. Create the claims. "sub" is the standard claim for the user ID.
	now := m.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(TokenTTL).Unix(),
		"iat": now.Unix(),
	}

	// 2. Sign the token with HS256 and our secret key.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a JWT token string.
// It returns the user ID (subject) if the token is valid.
func (m *Manager) ValidateToken(tokenString string) (int64, error) {
	// 1. Parse the token string, pinning the signing method.
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return 0, errors.Join(ErrInvalidToken, err)
	}

	// 2. Get the user ID ("sub") from the claims.
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	userIDFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, errors.Join(ErrInvalidToken, errors.New("invalid subject claim"))
	}
	// JSON numbers decode as float64
	return int64(userIDFloat), nil
}
