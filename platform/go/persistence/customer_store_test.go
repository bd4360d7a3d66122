package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fixbay/fixbay-backend/platform/go/tenant"
)

func strPtr(s string) *string { return &s }

func TestCustomerIsolationAcrossTenants(t *testing.T) {
	t.Parallel()

	_, db := newTestTenantDB(t)
	store := NewCustomerStore(db)
	ctx := context.Background()
	t1 := tenant.ID("t1")
	t2 := tenant.ID("t2")

	alice, err := store.CreateCustomer(ctx, t1, CreateCustomerParams{
		CustomerID:  uuid.New(),
		Email:       "alice@example.com",
		FullName:    "Alice A",
		AuthSubject: strPtr("sub-alice"),
	})
	require.NoError(t, err)

	// Same email under another tenant is fine: uniqueness is per tenant.
	_, err = store.CreateCustomer(ctx, t2, CreateCustomerParams{
		CustomerID: uuid.New(),
		Email:      "alice@example.com",
		FullName:   "Alice B",
	})
	require.NoError(t, err)

	// Duplicate within the same tenant conflicts.
	_, err = store.CreateCustomer(ctx, t1, CreateCustomerParams{
		CustomerID: uuid.New(),
		Email:      "alice@example.com",
		FullName:   "Alice again",
	})
	require.ErrorIs(t, err, ErrCustomerConflict)

	// Cross-tenant read finds nothing.
	_, err = store.GetCustomer(ctx, t2, alice.CustomerID)
	require.ErrorIs(t, err, ErrCustomerNotFound)

	found, err := store.GetCustomer(ctx, t1, alice.CustomerID)
	require.NoError(t, err)
	require.Equal(t, "Alice A", found.FullName)

	listed, err := store.ListCustomers(ctx, t1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestCustomerSelfProfileLookup(t *testing.T) {
	t.Parallel()

	_, db := newTestTenantDB(t)
	store := NewCustomerStore(db)
	ctx := context.Background()
	t1 := tenant.ID("t1")
	t2 := tenant.ID("t2")

	_, err := store.CreateCustomer(ctx, t1, CreateCustomerParams{
		CustomerID:  uuid.New(),
		Email:       "bob@example.com",
		FullName:    "Bob",
		AuthSubject: strPtr("sub-bob"),
	})
	require.NoError(t, err)

	found, err := store.GetCustomerBySubject(ctx, t1, "sub-bob")
	require.NoError(t, err)
	require.Equal(t, "Bob", found.FullName)

	// The same subject resolves to nothing inside another tenant.
	_, err = store.GetCustomerBySubject(ctx, t2, "sub-bob")
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestTenantRegistryLifecycle(t *testing.T) {
	t.Parallel()

	_, db := newTestTenantDB(t)
	registry := NewTenantRegistry(db)
	ctx := context.Background()

	created, err := registry.CreateTenant(ctx, tenant.ID("acme"), "Acme Auto Group")
	require.NoError(t, err)
	require.Equal(t, TenantStatusActive, created.Status)

	_, err = registry.CreateTenant(ctx, tenant.ID("acme"), "Duplicate")
	require.ErrorIs(t, err, ErrTenantExists)

	suspended, err := registry.SetTenantStatus(ctx, tenant.ID("acme"), TenantStatusSuspended)
	require.NoError(t, err)
	require.Equal(t, TenantStatusSuspended, suspended.Status)

	records, err := registry.ListTenants(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = registry.GetTenant(ctx, tenant.ID("missing"))
	require.ErrorIs(t, err, ErrTenantNotFound)
}
