package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	platformauth "github.com/fixbay/fixbay-backend/platform/go/auth"
	"github.com/fixbay/fixbay-backend/platform/go/requesttrace"
	"github.com/fixbay/fixbay-backend/platform/go/tenant"
)

// RequestTrace attaches requesttrace.AuditInfo built from the
// authenticated credentials, the resolved tenant and the request id.
// Unauthenticated requests get an anonymous audit record so downstream
// services never observe a missing trace.
func RequestTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := chimw.GetReqID(r.Context())

		var tenantID *tenant.ID
		if id, ok := tenant.FromContext(r.Context()); ok {
			tenantID = &id
		}

		audit := requesttrace.Anonymous(requestID)
		if creds, ok := platformauth.UserFromContext(r.Context()); ok && creds != nil {
			if built, err := requesttrace.FromCredentials(creds, tenantID, requestID); err == nil {
				audit = built
			}
		} else {
			audit.TenantID = tenantID
		}

		ctx := requesttrace.IntoContext(r.Context(), audit)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
