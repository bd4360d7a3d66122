package persistence

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// newTestTenantDB spins up a transient Postgres, applies the embedded DDL
// and returns a TenantDB connected as a dedicated non-superuser role.
// Superusers bypass RLS, so exercising the policies requires the same
// unprivileged application role production uses.
func newTestTenantDB(t *testing.T) (*pgxpool.Pool, *TenantDB) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping persistence integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("fixbay"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp").WithStartupTimeout(2*time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	adminConnString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	adminPool, err := pgxpool.New(ctx, adminConnString)
	require.NoError(t, err)
	t.Cleanup(adminPool.Close)

	require.NoError(t, Bootstrap(ctx, adminPool))

	_, err = adminPool.Exec(ctx, `
DO $$
BEGIN
   IF NOT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = 'fixbay_app') THEN
      CREATE ROLE fixbay_app LOGIN PASSWORD 'fixbay_app' NOSUPERUSER;
   END IF;
END$$;`)
	require.NoError(t, err)
	_, err = adminPool.Exec(ctx, `GRANT SELECT, INSERT, UPDATE, DELETE ON tenants, customers, appointments TO fixbay_app`)
	require.NoError(t, err)

	appConnString := strings.Replace(adminConnString, "postgres:postgres@", "fixbay_app:fixbay_app@", 1)
	appPool, err := NewPool(ctx, PoolConfig{
		ConnString: appConnString,
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { ClosePool(appPool) })

	return appPool, NewTenantDB(TenantDBConfig{Pool: appPool})
}

func ts(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	return time.Date(2026, time.September, 14, hour, minute, 0, 0, time.UTC)
}
