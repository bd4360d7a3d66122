package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fixbay/fixbay-backend/platform/go/apperr"
	"github.com/fixbay/fixbay-backend/platform/go/tenant"
)

func TestResolveTenantAttachesIdentity(t *testing.T) {
	t.Parallel()

	var got tenant.ID
	var present bool
	handler := ResolveTenant(tenant.NewResolver())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, present = tenant.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "http://fixbay.io/appointments", nil)
	req.Header.Set(tenant.DefaultHeader, "t1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, present)
	require.Equal(t, tenant.ID("t1"), got)
}

func TestRequireTenantFailsClosedBeforeHandler(t *testing.T) {
	t.Parallel()

	handlerRan := false
	guarded := ResolveTenant(tenant.NewResolver())(
		RequireTenant(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerRan = true
		})),
	)

	// Admin route, no tenant header, non-subdomain host.
	req := httptest.NewRequest(http.MethodGet, "http://fixbay.io/admin/tenants", nil)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	require.False(t, handlerRan, "no handler (and no query) may run without a tenant")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body apperr.Body
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "tenant_missing", body.Code)
}

func TestRequireTenantPassesWithTenant(t *testing.T) {
	t.Parallel()

	handlerRan := false
	guarded := ResolveTenant(tenant.NewResolver())(
		RequireTenant(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerRan = true
		})),
	)

	req := httptest.NewRequest(http.MethodGet, "http://t1.fixbay.io/appointments", nil)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	require.True(t, handlerRan)
}

func TestPublicRouteProceedsWithoutTenant(t *testing.T) {
	t.Parallel()

	handlerRan := false
	public := ResolveTenant(tenant.NewResolver())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
		_, ok := tenant.FromContext(r.Context())
		require.False(t, ok)
	}))

	public.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://fixbay.io/healthz", nil))
	require.True(t, handlerRan)
}
