package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/fixbay/fixbay-backend/platform/go/apperr"
	"github.com/fixbay/fixbay-backend/platform/go/tenant"
)

func booking(t *testing.T, plate, technician string, startHour, startMin, endHour, endMin int) CreateAppointmentParams {
	t.Helper()
	return CreateAppointmentParams{
		AppointmentID: uuid.New(),
		VehiclePlate:  plate,
		TechnicianID:  technician,
		StartsAt:      ts(t, startHour, startMin),
		EndsAt:        ts(t, endHour, endMin),
	}
}

func TestVehicleConflictWithinTenant(t *testing.T) {
	t.Parallel()

	_, db := newTestTenantDB(t)
	store := NewAppointmentStore(db)
	ctx := context.Background()
	t1 := tenant.ID("t1")

	_, err := store.CreateAppointment(ctx, t1, booking(t, "VEH777", "tech-x", 10, 0, 11, 0))
	require.NoError(t, err)

	// Same vehicle, different technician, overlapping window.
	_, err = store.CreateAppointment(ctx, t1, booking(t, "VEH777", "tech-y", 10, 30, 11, 30))
	require.ErrorIs(t, err, apperr.ErrSchedulingConflict)

	var conflict *apperr.ConflictError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, "vehicle", conflict.Resource)
	require.Equal(t, "VEH777", conflict.Key)
}

func TestTechnicianConflictWithinTenant(t *testing.T) {
	t.Parallel()

	_, db := newTestTenantDB(t)
	store := NewAppointmentStore(db)
	ctx := context.Background()
	t1 := tenant.ID("t1")

	_, err := store.CreateAppointment(ctx, t1, booking(t, "VEH111", "tech-x", 10, 0, 11, 0))
	require.NoError(t, err)

	_, err = store.CreateAppointment(ctx, t1, booking(t, "VEH222", "tech-x", 10, 30, 11, 30))
	require.ErrorIs(t, err, apperr.ErrSchedulingConflict)

	var conflict *apperr.ConflictError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, "technician", conflict.Resource)
	require.Equal(t, "tech-x", conflict.Key)
}

func TestIdenticalResourcesAcrossTenantsNeverConflict(t *testing.T) {
	t.Parallel()

	_, db := newTestTenantDB(t)
	store := NewAppointmentStore(db)
	ctx := context.Background()

	_, err := store.CreateAppointment(ctx, tenant.ID("t1"), booking(t, "VEH777", "tech-x", 10, 0, 11, 0))
	require.NoError(t, err)

	// Same plate, same technician, fully overlapping, different tenant.
	_, err = store.CreateAppointment(ctx, tenant.ID("t2"), booking(t, "VEH777", "tech-x", 10, 30, 11, 30))
	require.NoError(t, err)
}

func TestAdjacentWindowsDoNotConflict(t *testing.T) {
	t.Parallel()

	_, db := newTestTenantDB(t)
	store := NewAppointmentStore(db)
	ctx := context.Background()
	t1 := tenant.ID("t1")

	_, err := store.CreateAppointment(ctx, t1, booking(t, "VEH777", "tech-x", 10, 0, 11, 0))
	require.NoError(t, err)

	// Half-open intervals: [10,11) and [11,12) share only the boundary.
	_, err = store.CreateAppointment(ctx, t1, booking(t, "VEH777", "tech-x", 11, 0, 12, 0))
	require.NoError(t, err)
}

func TestZeroDurationWindowNeverConflicts(t *testing.T) {
	t.Parallel()

	_, db := newTestTenantDB(t)
	store := NewAppointmentStore(db)
	ctx := context.Background()
	t1 := tenant.ID("t1")

	_, err := store.CreateAppointment(ctx, t1, booking(t, "VEH777", "tech-x", 10, 0, 11, 0))
	require.NoError(t, err)

	// Zero-duration candidate strictly inside a busy window is accepted.
	_, err = store.CreateAppointment(ctx, t1, booking(t, "VEH777", "tech-x", 10, 30, 10, 30))
	require.NoError(t, err)

	// And an existing zero-duration window blocks nothing.
	_, err = store.CreateAppointment(ctx, t1, booking(t, "VEH888", "tech-z", 14, 0, 14, 0))
	require.NoError(t, err)
	_, err = store.CreateAppointment(ctx, t1, booking(t, "VEH888", "tech-z", 13, 0, 15, 0))
	require.NoError(t, err)
}

func TestCancelledWindowFreesResources(t *testing.T) {
	t.Parallel()

	_, db := newTestTenantDB(t)
	store := NewAppointmentStore(db)
	ctx := context.Background()
	t1 := tenant.ID("t1")

	first, err := store.CreateAppointment(ctx, t1, booking(t, "VEH777", "tech-x", 10, 0, 11, 0))
	require.NoError(t, err)

	cancelled, err := store.CancelAppointment(ctx, t1, first.AppointmentID)
	require.NoError(t, err)
	require.Equal(t, AppointmentStatusCancelled, cancelled.Status)

	_, err = store.CreateAppointment(ctx, t1, booking(t, "VEH777", "tech-y", 10, 30, 11, 30))
	require.NoError(t, err)

	// Cancelling twice finds no booked row.
	_, err = store.CancelAppointment(ctx, t1, first.AppointmentID)
	require.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestConcurrentBookingsExactlyOneCommits(t *testing.T) {
	t.Parallel()

	_, db := newTestTenantDB(t)
	store := NewAppointmentStore(db)
	t1 := tenant.ID("t1")

	type result struct{ err error }
	results := make(chan result, 2)

	race := func(plate string) {
		_, err := store.CreateAppointment(context.Background(), t1,
			booking(t, plate, "tech-x", 9, 0, 10, 0))
		results <- result{err: err}
	}

	// Same technician, overlapping windows, racing transactions.
	go race("VEH111")
	go race("VEH222")

	var conflicts, successes int
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, r.err, apperr.ErrSchedulingConflict)
		conflicts++
	}

	require.Equal(t, 1, successes, "exactly one racing booking may commit")
	require.Equal(t, 1, conflicts)
}

func TestGetAndListWithinTenantScope(t *testing.T) {
	t.Parallel()

	_, db := newTestTenantDB(t)
	store := NewAppointmentStore(db)
	ctx := context.Background()
	t1 := tenant.ID("t1")
	t2 := tenant.ID("t2")

	created, err := store.CreateAppointment(ctx, t1, booking(t, "VEH777", "tech-x", 10, 0, 11, 0))
	require.NoError(t, err)

	found, err := store.GetAppointment(ctx, t1, created.AppointmentID)
	require.NoError(t, err)
	require.Equal(t, "VEH777", found.VehiclePlate)

	// The same id is invisible from another tenant's scope.
	_, err = store.GetAppointment(ctx, t2, created.AppointmentID)
	require.ErrorIs(t, err, ErrAppointmentNotFound)

	day, err := store.ListAppointments(ctx, t1, ts(t, 0, 0), ts(t, 23, 59))
	require.NoError(t, err)
	require.Len(t, day, 1)

	other, err := store.ListAppointments(ctx, t2, ts(t, 0, 0), ts(t, 23, 59))
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestPlatformScopeSeesNoTenantRows(t *testing.T) {
	t.Parallel()

	_, db := newTestTenantDB(t)
	store := NewAppointmentStore(db)
	ctx := context.Background()

	_, err := store.CreateAppointment(ctx, tenant.ID("t1"), booking(t, "VEH777", "tech-x", 10, 0, 11, 0))
	require.NoError(t, err)

	// With no tenant binding the policy predicate is NULL: zero rows, not
	// all rows. This is the fail-closed default the design depends on.
	err = db.WithPlatform(ctx, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&count); err != nil {
			return err
		}
		require.Zero(t, count)
		return nil
	})
	require.NoError(t, err)
}

func TestTenantBindingClearedAfterScope(t *testing.T) {
	t.Parallel()

	_, db := newTestTenantDB(t)
	ctx := context.Background()

	err := db.WithTenant(ctx, tenant.ID("t1"), func(tx pgx.Tx) error {
		var current string
		if err := tx.QueryRow(ctx, `SELECT current_setting($1, true)`, TenantGUC).Scan(&current); err != nil {
			return err
		}
		require.Equal(t, "t1", current)
		return nil
	})
	require.NoError(t, err)

	// Any later transaction must observe an unset variable.
	err = db.WithPlatform(ctx, func(tx pgx.Tx) error {
		var current string
		if err := tx.QueryRow(ctx, `SELECT COALESCE(current_setting($1, true), '')`, TenantGUC).Scan(&current); err != nil {
			return err
		}
		require.Empty(t, current)
		return nil
	})
	require.NoError(t, err)
}
