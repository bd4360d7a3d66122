package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fixbay/fixbay-backend/platform/go/persistence"
	"github.com/fixbay/fixbay-backend/platform/go/tenant"
)

// Repository defines the persistence operations the appointments service
// relies on. The conflict check lives behind Create: check and insert are
// one atomic storage operation, never two calls.
type Repository interface {
	Create(ctx context.Context, tenantID tenant.ID, params persistence.CreateAppointmentParams) (persistence.Appointment, error)
	Get(ctx context.Context, tenantID tenant.ID, id uuid.UUID) (persistence.Appointment, error)
	List(ctx context.Context, tenantID tenant.ID, from, to time.Time) ([]persistence.Appointment, error)
	Cancel(ctx context.Context, tenantID tenant.ID, id uuid.UUID) (persistence.Appointment, error)
}

type postgresRepository struct {
	store *persistence.AppointmentStore
}

// NewPostgresRepository adapts the appointment store to the Repository
// interface.
func NewPostgresRepository(store *persistence.AppointmentStore) Repository {
	if store == nil {
		panic("appointments repository requires store")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, tenantID tenant.ID, params persistence.CreateAppointmentParams) (persistence.Appointment, error) {
	return r.store.CreateAppointment(ctx, tenantID, params)
}

func (r *postgresRepository) Get(ctx context.Context, tenantID tenant.ID, id uuid.UUID) (persistence.Appointment, error) {
	return r.store.GetAppointment(ctx, tenantID, id)
}

func (r *postgresRepository) List(ctx context.Context, tenantID tenant.ID, from, to time.Time) ([]persistence.Appointment, error) {
	return r.store.ListAppointments(ctx, tenantID, from, to)
}

func (r *postgresRepository) Cancel(ctx context.Context, tenantID tenant.ID, id uuid.UUID) (persistence.Appointment, error) {
	return r.store.CancelAppointment(ctx, tenantID, id)
}
