package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fixbay/fixbay-backend/platform/go/tenant"
)

// Tenant lifecycle statuses.
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
)

var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantExists   = errors.New("tenant already registered")
)

// TenantRecord is a platform-level franchise registration. Creating one
// does not provision schemas or roles: isolation is pooled-row RLS only.
type TenantRecord struct {
	TenantID    tenant.ID
	DisplayName string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TenantRegistry manages franchise registrations through platform
// transactions (no tenant binding; the registry is not tenant-scoped).
type TenantRegistry struct {
	db *TenantDB
}

func NewTenantRegistry(db *TenantDB) *TenantRegistry {
	if db == nil {
		panic("TenantRegistry requires TenantDB")
	}
	return &TenantRegistry{db: db}
}

const tenantColumns = `tenant_id, display_name, status, created_at, updated_at`

func (r *TenantRegistry) CreateTenant(ctx context.Context, id tenant.ID, displayName string) (TenantRecord, error) {
	var created TenantRecord

	err := r.db.WithPlatform(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
INSERT INTO tenants (tenant_id, display_name)
VALUES ($1, $2)
RETURNING `+tenantColumns,
			id.String(), displayName,
		)
		var err error
		created, err = scanTenant(row)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrTenantExists
			}
			return fmt.Errorf("insert tenant: %w", err)
		}
		return nil
	})
	if err != nil {
		return TenantRecord{}, err
	}
	return created, nil
}

func (r *TenantRegistry) GetTenant(ctx context.Context, id tenant.ID) (TenantRecord, error) {
	var found TenantRecord

	err := r.db.WithPlatform(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE tenant_id = $1`, id.String())
		var err error
		found, err = scanTenant(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTenantNotFound
		}
		if err != nil {
			return fmt.Errorf("get tenant: %w", err)
		}
		return nil
	})
	if err != nil {
		return TenantRecord{}, err
	}
	return found, nil
}

func (r *TenantRegistry) ListTenants(ctx context.Context) ([]TenantRecord, error) {
	var records []TenantRecord

	err := r.db.WithPlatform(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY tenant_id`)
		if err != nil {
			return fmt.Errorf("list tenants: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			record, err := scanTenant(rows)
			if err != nil {
				return fmt.Errorf("scan tenant: %w", err)
			}
			records = append(records, record)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// SetTenantStatus transitions a franchise between active and suspended.
func (r *TenantRegistry) SetTenantStatus(ctx context.Context, id tenant.ID, status string) (TenantRecord, error) {
	var updated TenantRecord

	err := r.db.WithPlatform(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
UPDATE tenants
SET status = $2, updated_at = now()
WHERE tenant_id = $1
RETURNING `+tenantColumns,
			id.String(), status,
		)
		var err error
		updated, err = scanTenant(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTenantNotFound
		}
		if err != nil {
			return fmt.Errorf("update tenant status: %w", err)
		}
		return nil
	})
	if err != nil {
		return TenantRecord{}, err
	}
	return updated, nil
}

func scanTenant(row pgx.Row) (TenantRecord, error) {
	var rec TenantRecord
	var id string
	err := row.Scan(&id, &rec.DisplayName, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	rec.TenantID = tenant.ID(id)
	return rec, err
}
