package repo

import (
	"context"

	"github.com/fixbay/fixbay-backend/platform/go/persistence"
	"github.com/fixbay/fixbay-backend/platform/go/tenant"
)

// Repository defines the platform-level registry operations the tenants
// service relies on. These run outside any tenant scope.
type Repository interface {
	Create(ctx context.Context, id tenant.ID, displayName string) (persistence.TenantRecord, error)
	Get(ctx context.Context, id tenant.ID) (persistence.TenantRecord, error)
	List(ctx context.Context) ([]persistence.TenantRecord, error)
	SetStatus(ctx context.Context, id tenant.ID, status string) (persistence.TenantRecord, error)
}

type postgresRepository struct {
	registry *persistence.TenantRegistry
}

// NewPostgresRepository adapts the tenant registry to the Repository
// interface.
func NewPostgresRepository(registry *persistence.TenantRegistry) Repository {
	if registry == nil {
		panic("tenants repository requires registry")
	}
	return &postgresRepository{registry: registry}
}

func (r *postgresRepository) Create(ctx context.Context, id tenant.ID, displayName string) (persistence.TenantRecord, error) {
	return r.registry.CreateTenant(ctx, id, displayName)
}

func (r *postgresRepository) Get(ctx context.Context, id tenant.ID) (persistence.TenantRecord, error) {
	return r.registry.GetTenant(ctx, id)
}

func (r *postgresRepository) List(ctx context.Context) ([]persistence.TenantRecord, error) {
	return r.registry.ListTenants(ctx)
}

func (r *postgresRepository) SetStatus(ctx context.Context, id tenant.ID, status string) (persistence.TenantRecord, error) {
	return r.registry.SetTenantStatus(ctx, id, status)
}
