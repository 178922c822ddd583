package middleware

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storesync/internal/core/appctx"
)

// accessClaims are the token claims the API relies on. branch_id scopes every
// operation the token performs.
type accessClaims struct {
	jwt.RegisteredClaims
	Email    string   `json:"email"`
	BranchID string   `json:"branch_id"`
	Roles    []string `json:"roles"`
}

// TokenValidator validates HMAC-signed JWTs.
type TokenValidator struct {
	secret []byte
}

// NewTokenValidator creates a validator for the given signing secret.
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret)}
}

// ValidateToken parses and verifies a token, returning the user it names.
func (v *TokenValidator) ValidateToken(tokenString string) (*appctx.UserContext, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return &appctx.UserContext{
		UserID:   claims.Subject,
		Email:    claims.Email,
		BranchID: claims.BranchID,
		Roles:    claims.Roles,
	}, nil
}

// IssueToken signs a token for a user. Used by tests and local tooling; the
// production identity provider issues real tokens.
func (v *TokenValidator) IssueToken(user *appctx.UserContext, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:    user.Email,
		BranchID: user.BranchID,
		Roles:    user.Roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
