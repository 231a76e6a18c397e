// Package auth holds the credential primitives: JWT bearer tokens, bcrypt
// password hashes and TOTP codes.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType separates full access tokens from the short-lived tokens issued
// while a second factor is still pending.
type TokenType string

const (
	AccessToken    TokenType = "access"
	TwoFactorToken TokenType = "2fa"
)

// Claims carries the username as the subject, the role and the token type.
// The ID (jti) identifies the token in the revocation store.
type Claims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
	Type TokenType   `json:"typ"`
}

func (c *Claims) Username() string {
	return c.Subject
}

// GenerateToken signs an HS256 token valid for validityDuration.
func GenerateToken(username string, role models.Role, typ TokenType, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Role: role,
		Type: typ,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry. Expired tokens yield
// common.ErrTokenExpired, anything else common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
