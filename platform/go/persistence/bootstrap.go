package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/fixbay/fixbay-backend/database"
)

// Bootstrap applies the embedded DDL in a single transaction, in this
// order:
//  1. platform/tenants.sql
//  2. tenant_space/customers.sql
//  3. tenant_space/appointments.sql
//
// SQL is embedded at build time so binaries stay self-contained. The
// helper is idempotent and intended for CLI bootstrap and tests. RLS
// policies ship with the tables; the application only ever sets the
// session variable they reference.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("bootstrap: pool is required")
	}

	var statements []string
	statements = append(statements, splitStatements(sqlassets.TenantsSQL)...)
	statements = append(statements, splitStatements(sqlassets.CustomersSQL)...)
	statements = append(statements, splitStatements(sqlassets.AppointmentsSQL)...)

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// splitStatements breaks an embedded asset into individual statements.
// The DDL carries no procedural bodies, so splitting on semicolons is
// sufficient.
func splitStatements(asset string) []string {
	raw := strings.Split(asset, ";")
	statements := make([]string, 0, len(raw))
	for _, s := range raw {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}
