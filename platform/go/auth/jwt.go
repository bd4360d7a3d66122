package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HS256Verifier returns a VerifyFunc validating HMAC-signed tokens. It is
// meant for dev/CI environments and as the reference implementation of the
// verifier contract; production deployments plug in their IdP's verifier.
func HS256Verifier(secret []byte) VerifyFunc {
	return func(_ context.Context, tokenString string) (map[string]interface{}, error) {
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			return nil, err
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			return nil, errors.New("invalid token claims")
		}

		return map[string]interface{}(claims), nil
	}
}

// DevTokenParams are the claims for a locally minted token.
type DevTokenParams struct {
	UserID    string
	Email     string
	Role      string
	Tenant    string
	ExpiresIn time.Duration // default 1h if zero
}

// BuildDevToken mints an HS256 token carrying the claims the default
// extractor understands. Used by the admin CLI and tests only.
func BuildDevToken(secret []byte, p DevTokenParams, now time.Time) (string, error) {
	if p.UserID == "" {
		return "", errors.New("userID is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	expiresIn := p.ExpiresIn
	if expiresIn == 0 {
		expiresIn = time.Hour
	}

	claims := jwt.MapClaims{
		"sub": p.UserID,
		"iat": now.Unix(),
		"exp": now.Add(expiresIn).Unix(),
	}
	if p.Email != "" {
		claims["email"] = p.Email
	}
	if p.Role != "" {
		claims["role"] = p.Role
	}
	if p.Tenant != "" {
		claims["tenant"] = p.Tenant
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
