package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fixbay/fixbay-backend/domains/tenants/be/repo"
	"github.com/fixbay/fixbay-backend/platform/go/persistence"
	"github.com/fixbay/fixbay-backend/platform/go/tenant"
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

// Domain sentinel errors.
var (
	ErrNotFound = errors.New("tenant not found")
	ErrConflict = errors.New("tenant already registered")
)

// Tenant is the domain view of a franchise registration.
type Tenant struct {
	ID          tenant.ID
	DisplayName string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInput registers a new franchise. The identifier becomes the RLS
// partition key for every tenant-scoped row, so it must satisfy the
// identity grammar.
type CreateInput struct {
	ID          string
	DisplayName string
}

// Service defines the platform operations for the tenants domain.
// Registration does not provision schemas or roles: a row in the registry
// is all it takes, isolation is row-level.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Tenant, error)
	Get(ctx context.Context, id string) (Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Suspend(ctx context.Context, id string) (Tenant, error)
	Activate(ctx context.Context, id string) (Tenant, error)
}

type service struct {
	repo repo.Repository
}

// New constructs a tenants Service instance.
func New(r repo.Repository) Service {
	if r == nil {
		panic("tenants repository is required")
	}
	return &service{repo: r}
}

func (s *service) Create(ctx context.Context, input CreateInput) (Tenant, error) {
	fieldErrors := FieldErrors{}

	id, ok := tenant.Parse(input.ID)
	if !ok {
		fieldErrors.add("id", "id must be 1-64 characters of letters, digits, hyphen or underscore")
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		fieldErrors.add("displayName", "displayName is required")
	}

	if len(fieldErrors) > 0 {
		return Tenant{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.Create(ctx, id, displayName)
	if err != nil {
		return Tenant{}, mapPersistenceError(err)
	}
	return mapTenant(record), nil
}

func (s *service) Get(ctx context.Context, rawID string) (Tenant, error) {
	id, ok := tenant.Parse(rawID)
	if !ok {
		return Tenant{}, ErrNotFound
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return Tenant{}, mapPersistenceError(err)
	}
	return mapTenant(record), nil
}

func (s *service) List(ctx context.Context) ([]Tenant, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	tenants := make([]Tenant, 0, len(records))
	for _, record := range records {
		tenants = append(tenants, mapTenant(record))
	}
	return tenants, nil
}

func (s *service) Suspend(ctx context.Context, id string) (Tenant, error) {
	return s.setStatus(ctx, id, persistence.TenantStatusSuspended)
}

func (s *service) Activate(ctx context.Context, id string) (Tenant, error) {
	return s.setStatus(ctx, id, persistence.TenantStatusActive)
}

func (s *service) setStatus(ctx context.Context, rawID, status string) (Tenant, error) {
	id, ok := tenant.Parse(rawID)
	if !ok {
		return Tenant{}, ErrNotFound
	}

	record, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return Tenant{}, mapPersistenceError(err)
	}
	return mapTenant(record), nil
}

func mapTenant(record persistence.TenantRecord) Tenant {
	return Tenant{
		ID:          record.TenantID,
		DisplayName: record.DisplayName,
		Status:      record.Status,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrTenantNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrTenantExists):
		return ErrConflict
	default:
		return fmt.Errorf("tenants repository: %w", err)
	}
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
