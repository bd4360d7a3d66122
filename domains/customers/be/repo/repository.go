package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/fixbay/fixbay-backend/platform/go/persistence"
	"github.com/fixbay/fixbay-backend/platform/go/tenant"
)

// Repository defines the persistence operations the customers service
// relies on.
type Repository interface {
	Create(ctx context.Context, tenantID tenant.ID, params persistence.CreateCustomerParams) (persistence.Customer, error)
	Get(ctx context.Context, tenantID tenant.ID, id uuid.UUID) (persistence.Customer, error)
	GetBySubject(ctx context.Context, tenantID tenant.ID, subject string) (persistence.Customer, error)
	List(ctx context.Context, tenantID tenant.ID) ([]persistence.Customer, error)
}

type postgresRepository struct {
	store *persistence.CustomerStore
}

// NewPostgresRepository adapts the customer store to the Repository
// interface.
func NewPostgresRepository(store *persistence.CustomerStore) Repository {
	if store == nil {
		panic("customers repository requires store")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, tenantID tenant.ID, params persistence.CreateCustomerParams) (persistence.Customer, error) {
	return r.store.CreateCustomer(ctx, tenantID, params)
}

func (r *postgresRepository) Get(ctx context.Context, tenantID tenant.ID, id uuid.UUID) (persistence.Customer, error) {
	return r.store.GetCustomer(ctx, tenantID, id)
}

func (r *postgresRepository) GetBySubject(ctx context.Context, tenantID tenant.ID, subject string) (persistence.Customer, error) {
	return r.store.GetCustomerBySubject(ctx, tenantID, subject)
}

func (r *postgresRepository) List(ctx context.Context, tenantID tenant.ID) ([]persistence.Customer, error) {
	return r.store.ListCustomers(ctx, tenantID)
}
