package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fixbay/fixbay-backend/domains/customers/be/repo"
	"github.com/fixbay/fixbay-backend/platform/go/apperr"
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
	ErrNotFound = errors.New("customer not found")
	ErrConflict = errors.New("customer email already registered")
)

// Customer is the domain view of a customer record.
type Customer struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput represents the payload required to register a customer.
// AuthSubject, when present, links the record to the caller identity so
// the customer can read their own profile later.
type CreateInput struct {
	Email       string
	FullName    string
	Phone       *string
	AuthSubject *string
}

// Service defines the business operations for the customers domain. The
// tenant identity is read from the context.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Customer, error)
	Get(ctx context.Context, id uuid.UUID) (Customer, error)
	GetSelf(ctx context.Context, subject string) (Customer, error)
	List(ctx context.Context) ([]Customer, error)
}

type service struct {
	repo repo.Repository
}

// New constructs a customers Service instance.
func New(r repo.Repository) Service {
	if r == nil {
		panic("customers repository is required")
	}
	return &service{repo: r}
}

func (s *service) Create(ctx context.Context, input CreateInput) (Customer, error) {
	tenantID, ok := tenant.FromContext(ctx)
	if !ok {
		return Customer{}, apperr.ErrTenantMissing
	}

	fieldErrors := FieldErrors{}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		fieldErrors.add("email", "email is required")
	} else if !strings.Contains(email, "@") {
		fieldErrors.add("email", "email must contain '@'")
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		fieldErrors.add("fullName", "fullName is required")
	}

	if len(fieldErrors) > 0 {
		return Customer{}, &ValidationError{Fields: fieldErrors}
	}

	record, err := s.repo.Create(ctx, tenantID, persistence.CreateCustomerParams{
		CustomerID:  uuid.New(),
		Email:       email,
		FullName:    fullName,
		Phone:       input.Phone,
		AuthSubject: input.AuthSubject,
	})
	if err != nil {
		return Customer{}, mapPersistenceError(err)
	}
	return mapCustomer(record), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Customer, error) {
	tenantID, ok := tenant.FromContext(ctx)
	if !ok {
		return Customer{}, apperr.ErrTenantMissing
	}
	if id == uuid.Nil {
		return Customer{}, ErrNotFound
	}

	record, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return Customer{}, mapPersistenceError(err)
	}
	return mapCustomer(record), nil
}

// GetSelf resolves the profile linked to the authenticated subject. The
// lookup runs inside the tenant scope, so the same subject under another
// tenant resolves to nothing.
func (s *service) GetSelf(ctx context.Context, subject string) (Customer, error) {
	tenantID, ok := tenant.FromContext(ctx)
	if !ok {
		return Customer{}, apperr.ErrTenantMissing
	}
	if strings.TrimSpace(subject) == "" {
		return Customer{}, ErrNotFound
	}

	record, err := s.repo.GetBySubject(ctx, tenantID, subject)
	if err != nil {
		return Customer{}, mapPersistenceError(err)
	}
	return mapCustomer(record), nil
}

func (s *service) List(ctx context.Context) ([]Customer, error) {
	tenantID, ok := tenant.FromContext(ctx)
	if !ok {
		return nil, apperr.ErrTenantMissing
	}

	records, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	customers := make([]Customer, 0, len(records))
	for _, record := range records {
		customers = append(customers, mapCustomer(record))
	}
	return customers, nil
}

func mapCustomer(record persistence.Customer) Customer {
	return Customer{
		ID:        record.CustomerID,
		Email:     record.Email,
		FullName:  record.FullName,
		Phone:     record.Phone,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrCustomerNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrCustomerConflict):
		return ErrConflict
	default:
		return fmt.Errorf("customers repository: %w", err)
	}
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
