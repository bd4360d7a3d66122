package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fixbay/fixbay-backend/platform/go/apperr"
	"github.com/fixbay/fixbay-backend/platform/go/tenant"
)

// Appointment statuses.
const (
	AppointmentStatusBooked    = "booked"
	AppointmentStatusCancelled = "cancelled"
)

// ErrAppointmentNotFound is returned when no visible row matches. Under
// RLS "not visible" and "not existing" are indistinguishable by design.
var ErrAppointmentNotFound = errors.New("appointment not found")

// Appointment is the persisted booking window for a vehicle/technician
// pair. The tenant is implied by the scope the row was read through.
type Appointment struct {
	AppointmentID uuid.UUID
	CustomerID    *uuid.UUID
	VehiclePlate  string
	TechnicianID  string
	StartsAt      time.Time
	EndsAt        time.Time
	Status        string
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateAppointmentParams is the candidate booking window.
type CreateAppointmentParams struct {
	AppointmentID uuid.UUID
	CustomerID    *uuid.UUID
	VehiclePlate  string
	TechnicianID  string
	StartsAt      time.Time
	EndsAt        time.Time
	Notes         *string
}

// AppointmentStore persists booking windows through tenant-bound
// transactions. The conflict check and the insert always share one
// transaction so the check-then-act is atomic with respect to the commit.
type AppointmentStore struct {
	db *TenantDB
}

func NewAppointmentStore(db *TenantDB) *AppointmentStore {
	if db == nil {
		panic("AppointmentStore requires TenantDB")
	}
	return &AppointmentStore{db: db}
}

const appointmentColumns = `appointment_id, customer_id, vehicle_plate, technician_id, starts_at, ends_at, status, notes, created_at, updated_at`

// CreateAppointment runs the conflict check and the insert inside one
// tenant-bound read-committed transaction.
//
// Per-resource advisory xact locks serialize racing bookings for the same
// vehicle or technician: row locks cannot guard rows that do not exist
// yet, so among concurrent overlapping requests exactly one observes "no
// conflict" and commits. Locks are taken in sorted key order so two
// requests sharing both resources cannot deadlock.
func (s *AppointmentStore) CreateAppointment(ctx context.Context, tenantID tenant.ID, params CreateAppointmentParams) (Appointment, error) {
	var created Appointment

	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		// Zero-duration windows occupy no time and conflict with nothing.
		if !params.StartsAt.Equal(params.EndsAt) {
			if err := s.lockResources(ctx, tx, tenantID, params); err != nil {
				return err
			}
			if err := s.checkOverlap(ctx, tx, params); err != nil {
				return err
			}
		}

		row := tx.QueryRow(ctx, `
INSERT INTO appointments (appointment_id, customer_id, vehicle_plate, technician_id, starts_at, ends_at, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+appointmentColumns,
			params.AppointmentID,
			params.CustomerID,
			params.VehiclePlate,
			params.TechnicianID,
			params.StartsAt,
			params.EndsAt,
			params.Notes,
		)
		var err error
		created, err = scanAppointment(row)
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	return created, nil
}

// lockResources takes one advisory xact lock per resource key. The locks
// release automatically at transaction end.
func (s *AppointmentStore) lockResources(ctx context.Context, tx pgx.Tx, tenantID tenant.ID, params CreateAppointmentParams) error {
	keys := []string{
		resourceKey(tenantID, "vehicle", params.VehiclePlate),
		resourceKey(tenantID, "technician", params.TechnicianID),
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
			return fmt.Errorf("lock resource %s: %w", key, err)
		}
	}
	return nil
}

// checkOverlap applies the half-open overlap test against booked windows
// sharing either resource. Rows matching the vehicle are preferred when
// classifying the collision: a vehicle cannot be in two places at once
// regardless of which technician is assigned. Zero-duration rows occupy
// no time and never block.
func (s *AppointmentStore) checkOverlap(ctx context.Context, tx pgx.Tx, params CreateAppointmentParams) error {
	var plate, technician string
	err := tx.QueryRow(ctx, `
SELECT vehicle_plate, technician_id
FROM appointments
WHERE status = $1
  AND (vehicle_plate = $2 OR technician_id = $3)
  AND starts_at < $5
  AND $4 < ends_at
  AND starts_at <> ends_at
ORDER BY (vehicle_plate = $2) DESC
LIMIT 1`,
		AppointmentStatusBooked,
		params.VehiclePlate,
		params.TechnicianID,
		params.StartsAt,
		params.EndsAt,
	).Scan(&plate, &technician)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query overlapping windows: %w", err)
	}

	if plate == params.VehiclePlate {
		return &apperr.ConflictError{Resource: "vehicle", Key: plate}
	}
	return &apperr.ConflictError{Resource: "technician", Key: technician}
}

// GetAppointment fetches a single booking window within the tenant scope.
func (s *AppointmentStore) GetAppointment(ctx context.Context, tenantID tenant.ID, id uuid.UUID) (Appointment, error) {
	var found Appointment

	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE appointment_id = $1`, id)
		var err error
		found, err = scanAppointment(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAppointmentNotFound
		}
		if err != nil {
			return fmt.Errorf("get appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	return found, nil
}

// ListAppointments returns booking windows intersecting [from, to),
// ordered by start time.
func (s *AppointmentStore) ListAppointments(ctx context.Context, tenantID tenant.ID, from, to time.Time) ([]Appointment, error) {
	var appointments []Appointment

	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
SELECT `+appointmentColumns+`
FROM appointments
WHERE starts_at < $2 AND $1 < ends_at
ORDER BY starts_at`,
			from, to,
		)
		if err != nil {
			return fmt.Errorf("list appointments: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			appointment, err := scanAppointment(rows)
			if err != nil {
				return fmt.Errorf("scan appointment: %w", err)
			}
			appointments = append(appointments, appointment)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// CancelAppointment marks a booked window cancelled. Cancelled windows no
// longer block new bookings.
func (s *AppointmentStore) CancelAppointment(ctx context.Context, tenantID tenant.ID, id uuid.UUID) (Appointment, error) {
	var cancelled Appointment

	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
UPDATE appointments
SET status = $2, updated_at = now()
WHERE appointment_id = $1 AND status = $3
RETURNING `+appointmentColumns,
			id, AppointmentStatusCancelled, AppointmentStatusBooked,
		)
		var err error
		cancelled, err = scanAppointment(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAppointmentNotFound
		}
		if err != nil {
			return fmt.Errorf("cancel appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	return cancelled, nil
}

func resourceKey(tenantID tenant.ID, class, key string) string {
	return class + ":" + tenantID.String() + ":" + key
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.AppointmentID,
		&a.CustomerID,
		&a.VehiclePlate,
		&a.TechnicianID,
		&a.StartsAt,
		&a.EndsAt,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}
