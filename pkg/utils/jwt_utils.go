package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTokenIssuer = "pos-tables-backend"

// SessionClaims identifies one POS screen session. It scopes cache keys and
// synchronizer state; it carries no user identity.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Branch    string `json:"branch"`
	Profile   string `json:"pos_profile"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs a session token valid for ttl.
func GenerateSessionToken(secret []byte, sessionID, branch, profile string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("session secret is empty")
	}
	now := time.Now()
	claims := &SessionClaims{
		SessionID: sessionID,
		Branch:    branch,
		Profile:   profile,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    sessionTokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return tokenString, nil
}

// ValidateSessionToken parses and validates a session token string.
func ValidateSessionToken(secret []byte, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(sessionTokenIssuer))

	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if !token.Valid || claims.SessionID == "" {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
