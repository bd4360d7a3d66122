// Package auth is the collaborator boundary for caller identity. The core
// consumes authenticate/authorize through the middleware below; the
// concrete token verifier is pluggable (see jwt.go for the dev verifier).
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type ctxKey struct{}

// UserCredentials is the resolved caller identity attached to the request
// context by the JWT middleware.
type UserCredentials struct {
	ID       string
	Email    string
	Role     string
	TenantID *string
}

// WithUser attaches credentials to the context. Handlers outside the
// middleware chain (tests, CLI) use this to act as an authenticated caller.
func WithUser(ctx context.Context, creds *UserCredentials) context.Context {
	return context.WithValue(ctx, ctxKey{}, creds)
}

// UserFromContext extracts the authenticated credentials, if any.
func UserFromContext(ctx context.Context) (*UserCredentials, bool) {
	v := ctx.Value(ctxKey{})
	if v == nil {
		return nil, false
	}
	u, ok := v.(*UserCredentials)
	return u, ok
}

// VerifyFunc validates the incoming bearer token and returns its claims map.
type VerifyFunc func(ctx context.Context, token string) (map[string]interface{}, error)

// ExtractFunc converts a claims map into UserCredentials.
type ExtractFunc func(claims map[string]interface{}) (*UserCredentials, error)

// JWT parses the request and sets the context credentials using the
// provided verify/extract functions. Requests without a token pass through
// unauthenticated; route guards decide whether that is acceptable.
func JWT(verify VerifyFunc, extract ExtractFunc) func(http.Handler) http.Handler {
	if verify == nil {
		panic("auth.JWT: verify func must not be nil")
	}
	if extract == nil {
		extract = DefaultCredentialExtractor
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, found := ExtractBearerToken(r)
			if token == "" || !found {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verify(r.Context(), token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="api", error="invalid_token", error_description="%s"`, err.Error()))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			creds, err := extract(claims)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="invalid claims"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, creds)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose authenticated role is not among the
// required ones. Missing credentials yield 401, a mismatched role 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds, ok := UserFromContext(r.Context())
			if !ok || creds == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !Authorize(creds.Role, roles) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authorize reports whether role is among the required roles. An empty
// requirement list permits any authenticated caller.
func Authorize(role string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if role == r {
			return true
		}
	}
	return false
}

// ExtractBearerToken pulls the bearer token from the Authorization header.
func ExtractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	const prefix = "Bearer "
	// Case-insensitive prefix match.
	if len(authHeader) < len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return "", false
	}

	return strings.TrimSpace(authHeader[len(prefix):]), true
}

// DefaultCredentialExtractor converts standard claims into UserCredentials.
func DefaultCredentialExtractor(claims map[string]interface{}) (*UserCredentials, error) {
	if claims == nil {
		return nil, fmt.Errorf("missing claims")
	}

	creds := &UserCredentials{
		ID:       fallbackStringClaim(claims, []string{"uid", "user_id", "sub"}, ""),
		Email:    stringClaim(claims, "email"),
		Role:     stringClaim(claims, "role"),
		TenantID: optionalStringClaim(claims, "tenant"),
	}
	if creds.ID == "" {
		return nil, fmt.Errorf("token carries no subject")
	}

	return creds, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key]; ok {
		if s, valid := v.(string); valid {
			return s
		}
	}
	return ""
}

func optionalStringClaim(claims map[string]interface{}, key string) *string {
	if v, ok := claims[key]; ok {
		if s, valid := v.(string); valid && s != "" {
			return &s
		}
	}
	return nil
}

func fallbackStringClaim(claims map[string]interface{}, keys []string, fallback string) string {
	for _, key := range keys {
		if s := stringClaim(claims, key); s != "" {
			return s
		}
	}
	return fallback
}
