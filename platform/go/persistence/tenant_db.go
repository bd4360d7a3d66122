package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixbay/fixbay-backend/platform/go/apperr"
	"github.com/fixbay/fixbay-backend/platform/go/tenant"
)

// txBeginner exposes the minimal pgx pool behaviour needed by TenantDB.
type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TenantDB wraps a pgx pool to execute queries within a tenant-bound
// transaction. The binding is the transaction-local session variable
// consumed by the RLS policies on tenant-scoped tables; it is applied at
// entry and implicitly undone by transaction end on every exit path, so a
// pooled connection never carries residual tenant state.
type TenantDB struct {
	pool txBeginner
}

type TenantDBConfig struct {
	Pool *pgxpool.Pool
}

func NewTenantDB(cfg TenantDBConfig) *TenantDB {
	if cfg.Pool == nil {
		panic("TenantDB requires pool")
	}
	return &TenantDB{pool: cfg.Pool}
}

// WithTenant executes fn inside a read-committed transaction with the
// tenant session variable bound for exactly that transaction.
//
// Read committed is deliberate: the appointment store serializes racing
// bookings with advisory xact locks, and the statement that runs after
// acquiring the lock must observe rows committed by the lock's previous
// holder. A repeatable-read snapshot taken before the lock wait would
// miss them.
//
// An absent identity fails immediately with apperr.ErrTenantMissing before
// any statement executes. A failure to begin the transaction or apply the
// directive is classified apperr.ErrTenantBindingFailed (retryable); fn
// errors propagate unchanged and roll the transaction back.
func (db *TenantDB) WithTenant(ctx context.Context, id tenant.ID, fn func(tx pgx.Tx) error) error {
	if id == "" {
		return fmt.Errorf("open tenant scope: %w", apperr.ErrTenantMissing)
	}

	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tenant tx: %w: %w", apperr.ErrTenantBindingFailed, err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT set_config($1, $2, true)`, TenantGUC, id.String()); err != nil {
		return fmt.Errorf("set tenant directive: %w: %w", apperr.ErrTenantBindingFailed, err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// WithPlatform executes fn inside a transaction with no tenant binding.
// Intended for platform tables (the tenant registry); tenant-scoped tables
// yield no rows through it because their policies see an unset variable.
func (db *TenantDB) WithPlatform(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin platform tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
