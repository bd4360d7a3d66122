package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fixbay/fixbay-backend/platform/go/tenant"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrCustomerConflict = errors.New("customer email already registered")
)

// Customer is a tenant-scoped customer record. AuthSubject links the row
// to the caller identity resolved by the auth collaborator so a customer
// can fetch their own profile within their own tenant.
type Customer struct {
	CustomerID  uuid.UUID
	Email       string
	FullName    string
	Phone       *string
	AuthSubject *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateCustomerParams struct {
	CustomerID  uuid.UUID
	Email       string
	FullName    string
	Phone       *string
	AuthSubject *string
}

// CustomerStore persists customers through tenant-bound transactions.
type CustomerStore struct {
	db *TenantDB
}

func NewCustomerStore(db *TenantDB) *CustomerStore {
	if db == nil {
		panic("CustomerStore requires TenantDB")
	}
	return &CustomerStore{db: db}
}

const customerColumns = `customer_id, email, full_name, phone, auth_subject, created_at, updated_at`

func (s *CustomerStore) CreateCustomer(ctx context.Context, tenantID tenant.ID, params CreateCustomerParams) (Customer, error) {
	var created Customer

	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
INSERT INTO customers (customer_id, email, full_name, phone, auth_subject)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+customerColumns,
			params.CustomerID,
			params.Email,
			params.FullName,
			params.Phone,
			params.AuthSubject,
		)
		var err error
		created, err = scanCustomer(row)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrCustomerConflict
			}
			return fmt.Errorf("insert customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return Customer{}, err
	}
	return created, nil
}

func (s *CustomerStore) GetCustomer(ctx context.Context, tenantID tenant.ID, id uuid.UUID) (Customer, error) {
	var found Customer

	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE customer_id = $1`, id)
		var err error
		found, err = scanCustomer(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCustomerNotFound
		}
		if err != nil {
			return fmt.Errorf("get customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return Customer{}, err
	}
	return found, nil
}

// GetCustomerBySubject fetches the profile linked to an authenticated
// caller within the current tenant.
func (s *CustomerStore) GetCustomerBySubject(ctx context.Context, tenantID tenant.ID, subject string) (Customer, error) {
	var found Customer

	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE auth_subject = $1`, subject)
		var err error
		found, err = scanCustomer(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCustomerNotFound
		}
		if err != nil {
			return fmt.Errorf("get customer by subject: %w", err)
		}
		return nil
	})
	if err != nil {
		return Customer{}, err
	}
	return found, nil
}

func (s *CustomerStore) ListCustomers(ctx context.Context, tenantID tenant.ID) ([]Customer, error) {
	var customers []Customer

	err := s.db.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY full_name`)
		if err != nil {
			return fmt.Errorf("list customers: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			customer, err := scanCustomer(rows)
			if err != nil {
				return fmt.Errorf("scan customer: %w", err)
			}
			customers = append(customers, customer)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(
		&c.CustomerID,
		&c.Email,
		&c.FullName,
		&c.Phone,
		&c.AuthSubject,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
