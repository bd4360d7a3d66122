package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fixbay/fixbay-backend/domains/appointments/be/repo"
	"github.com/fixbay/fixbay-backend/platform/go/apperr"
	"github.com/fixbay/fixbay-backend/platform/go/events"
	"github.com/fixbay/fixbay-backend/platform/go/metrics"
	"github.com/fixbay/fixbay-backend/platform/go/persistence"
	"github.com/fixbay/fixbay-backend/platform/go/requesttrace"
	"github.com/fixbay/fixbay-backend/platform/go/tenant"
)

// Event subjects emitted by this domain.
const (
	SubjectAppointmentCreated   = "fixbay.appointments.created"
	SubjectAppointmentCancelled = "fixbay.appointments.cancelled"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// ErrNotFound is returned when no appointment is visible within the
// caller's tenant scope.
var ErrNotFound = errors.New("appointment not found")

// Appointment is the domain view of a booking window.
type Appointment struct {
	ID           uuid.UUID
	CustomerID   *uuid.UUID
	VehiclePlate string
	TechnicianID string
	StartsAt     time.Time
	EndsAt       time.Time
	Status       string
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BookInput is the candidate booking window supplied by the caller.
type BookInput struct {
	CustomerID   *uuid.UUID
	VehiclePlate string
	TechnicianID string
	StartsAt     time.Time
	EndsAt       time.Time
	Notes        *string
}

// ListInput selects the half-open interval [From, To). A zero To defaults
// to one day after From.
type ListInput struct {
	From time.Time
	To   time.Time
}

// AppointmentEvent is the payload published on booking lifecycle changes.
// Actor and request id come from the request audit trail so consumers can
// attribute the change without another lookup.
type AppointmentEvent struct {
	TenantID      string     `json:"tenantId"`
	AppointmentID uuid.UUID  `json:"appointmentId"`
	VehiclePlate  string     `json:"vehiclePlate"`
	TechnicianID  string     `json:"technicianId"`
	StartsAt      time.Time  `json:"startsAt"`
	EndsAt        time.Time  `json:"endsAt"`
	CustomerID    *uuid.UUID `json:"customerId,omitempty"`
	ActorKind     string     `json:"actorKind"`
	ActorID       *string    `json:"actorId,omitempty"`
	RequestID     string     `json:"requestId,omitempty"`
}

// Service defines the business operations for the appointments domain.
// The tenant identity is read from the context; callers without one get
// apperr.ErrTenantMissing before any storage access. The request audit
// trail is read the same way and stamped onto published events and
// rejection logs.
type Service interface {
	Book(ctx context.Context, input BookInput) (Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (Appointment, error)
	List(ctx context.Context, input ListInput) ([]Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (Appointment, error)
}

type service struct {
	repo      repo.Repository
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// New constructs an appointments Service instance.
func New(r repo.Repository, publisher events.Publisher, m *metrics.Metrics, logger *zap.Logger) Service {
	if r == nil {
		panic("appointments repository is required")
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: r, publisher: publisher, metrics: m, logger: logger}
}

func (s *service) Book(ctx context.Context, input BookInput) (Appointment, error) {
	tenantID, ok := tenant.FromContext(ctx)
	if !ok {
		return Appointment{}, apperr.ErrTenantMissing
	}

	fieldErrors := FieldErrors{}

	plate := strings.ToUpper(strings.TrimSpace(input.VehiclePlate))
	if plate == "" {
		fieldErrors.add("vehiclePlate", "vehiclePlate is required")
	}

	technician := strings.TrimSpace(input.TechnicianID)
	if technician == "" {
		fieldErrors.add("technicianId", "technicianId is required")
	}

	if input.StartsAt.IsZero() {
		fieldErrors.add("startsAt", "startsAt is required")
	}
	if input.EndsAt.IsZero() {
		fieldErrors.add("endsAt", "endsAt is required")
	} else if input.EndsAt.Before(input.StartsAt) {
		fieldErrors.add("endsAt", "endsAt must not be before startsAt")
	}

	if len(fieldErrors) > 0 {
		return Appointment{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.Create(ctx, tenantID, persistence.CreateAppointmentParams{
		AppointmentID: uuid.New(),
		CustomerID:    input.CustomerID,
		VehiclePlate:  plate,
		TechnicianID:  technician,
		StartsAt:      input.StartsAt.UTC(),
		EndsAt:        input.EndsAt.UTC(),
		Notes:         input.Notes,
	})
	if err != nil {
		s.count(err)
		var conflict *apperr.ConflictError
		if errors.As(err, &conflict) {
			audit := requesttrace.FromContextOrAnonymous(ctx)
			s.logger.Warn("booking rejected, window overlaps",
				zap.String("resource", conflict.Resource),
				zap.String("key", conflict.Key),
				zap.String("actor_kind", string(audit.ActorKind)),
				zap.Stringp("actor_id", audit.UserID),
				zap.String("request_id", audit.RequestID),
			)
		}
		return Appointment{}, err
	}

	if s.metrics != nil {
		s.metrics.AppointmentsBooked.Inc()
	}
	s.publish(ctx, SubjectAppointmentCreated, tenantID, record)

	return mapAppointment(record), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Appointment, error) {
	tenantID, ok := tenant.FromContext(ctx)
	if !ok {
		return Appointment{}, apperr.ErrTenantMissing
	}
	if id == uuid.Nil {
		return Appointment{}, ErrNotFound
	}

	record, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return Appointment{}, mapPersistenceError(err)
	}
	return mapAppointment(record), nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]Appointment, error) {
	tenantID, ok := tenant.FromContext(ctx)
	if !ok {
		return nil, apperr.ErrTenantMissing
	}

	if input.From.IsZero() {
		return nil, &ValidationError{Fields: FieldErrors{"from": {"from is required"}}}
	}
	to := input.To
	if to.IsZero() {
		to = input.From.Add(24 * time.Hour)
	}
	if !to.After(input.From) {
		return nil, &ValidationError{Fields: FieldErrors{"to": {"to must be after from"}}}
	}

	records, err := s.repo.List(ctx, tenantID, input.From.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}

	appointments := make([]Appointment, 0, len(records))
	for _, record := range records {
		appointments = append(appointments, mapAppointment(record))
	}
	return appointments, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (Appointment, error) {
	tenantID, ok := tenant.FromContext(ctx)
	if !ok {
		return Appointment{}, apperr.ErrTenantMissing
	}
	if id == uuid.Nil {
		return Appointment{}, ErrNotFound
	}

	record, err := s.repo.Cancel(ctx, tenantID, id)
	if err != nil {
		return Appointment{}, mapPersistenceError(err)
	}

	s.publish(ctx, SubjectAppointmentCancelled, tenantID, record)

	return mapAppointment(record), nil
}

// publish is fire-and-forget: a broker failure never fails the booking
// that already committed.
func (s *service) publish(ctx context.Context, subject string, tenantID tenant.ID, record persistence.Appointment) {
	audit := requesttrace.FromContextOrAnonymous(ctx)
	event := AppointmentEvent{
		TenantID:      tenantID.String(),
		AppointmentID: record.AppointmentID,
		VehiclePlate:  record.VehiclePlate,
		TechnicianID:  record.TechnicianID,
		StartsAt:      record.StartsAt,
		EndsAt:        record.EndsAt,
		CustomerID:    record.CustomerID,
		ActorKind:     string(audit.ActorKind),
		ActorID:       audit.UserID,
		RequestID:     audit.RequestID,
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("subject", subject),
			zap.String("appointment_id", record.AppointmentID.String()),
			zap.String("request_id", audit.RequestID),
			zap.Error(err),
		)
	}
}

func (s *service) count(err error) {
	if s.metrics == nil {
		return
	}
	var conflict *apperr.ConflictError
	switch {
	case errors.As(err, &conflict):
		s.metrics.SchedulingConflicts.WithLabelValues(conflict.Resource).Inc()
	case errors.Is(err, apperr.ErrSchedulingConflict):
		s.metrics.SchedulingConflicts.WithLabelValues("unknown").Inc()
	case errors.Is(err, apperr.ErrTenantBindingFailed):
		s.metrics.TenantBindingFailure.Inc()
	}
}

func mapAppointment(record persistence.Appointment) Appointment {
	return Appointment{
		ID:           record.AppointmentID,
		CustomerID:   record.CustomerID,
		VehiclePlate: record.VehiclePlate,
		TechnicianID: record.TechnicianID,
		StartsAt:     record.StartsAt,
		EndsAt:       record.EndsAt,
		Status:       record.Status,
		Notes:        record.Notes,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	if errors.Is(err, persistence.ErrAppointmentNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("appointments repository: %w", err)
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
