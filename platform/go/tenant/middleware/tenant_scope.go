// Package middleware classifies routes by tenant requirement and attaches
// the resolved tenant identity to the request context.
package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/fixbay/fixbay-backend/platform/go/apperr"
	"github.com/fixbay/fixbay-backend/platform/go/logging"
	"github.com/fixbay/fixbay-backend/platform/go/tenant"
)

// ResolveTenant extracts the tenant identity from request metadata
// (header, query, subdomain) and stores it on the context. It never
// rejects: public routes are allowed to proceed without a tenant, and
// route-class guards decide what absence means.
func ResolveTenant(resolver tenant.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := resolver.ResolveRequest(r); ok {
				r = r.WithContext(tenant.WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireTenant guards tenant-required (data/admin) routes. When no valid
// tenant was resolved the request fails with 400 before any handler or
// query runs; there is no fallback to a default tenant and no permissive
// global mode.
func RequireTenant(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := tenant.FromContext(r.Context()); !ok {
				logger := logging.FromRequest(r, base)
				logger.Warn("tenant-required route invoked without tenant evidence",
					zap.String("path", r.URL.Path),
					zap.String("host", r.Host),
				)
				apperr.Write(w, apperr.ErrTenantMissing)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
