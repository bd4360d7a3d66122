package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	tenantsrepo "github.com/fixbay/fixbay-backend/domains/tenants/be/repo"
	tenantsservice "github.com/fixbay/fixbay-backend/domains/tenants/be/service"
	"github.com/fixbay/fixbay-backend/platform/go/persistence"
	"github.com/fixbay/fixbay-backend/platform/go/requesttrace"
)

// Command groups bootstrap helpers (DDL application, tenant seeding).
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap platform resources (schema, seed tenant)",
		Long:  "Apply the database schema with its row-level-security policies and optionally seed the first franchise.",
	}

	cmd.AddCommand(platformCommand())
	return cmd
}

func platformCommand() *cobra.Command {
	var (
		databaseURL string
		tenantID    string
		tenantName  string
	)

	c := &cobra.Command{
		Use:   "platform",
		Short: "Apply schema DDL and seed the first tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Operations from here run as a system actor, not a request.
			ctx := requesttrace.IntoContext(context.Background(), requesttrace.System("cli-bootstrap"))

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			if err := persistence.Bootstrap(ctx, pool); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied (tenants, customers, appointments with RLS policies).")

			if strings.TrimSpace(tenantID) == "" {
				return nil
			}

			tenantDB := persistence.NewTenantDB(persistence.TenantDBConfig{Pool: pool})
			registry := persistence.NewTenantRegistry(tenantDB)
			svc := tenantsservice.New(tenantsrepo.NewPostgresRepository(registry))

			seeded, err := svc.Create(ctx, tenantsservice.CreateInput{
				ID:          tenantID,
				DisplayName: tenantName,
			})
			if errors.Is(err, tenantsservice.ErrConflict) {
				fmt.Fprintf(cmd.OutOrStdout(), "Tenant %s already registered, leaving it untouched.\n", tenantID)
				return nil
			}
			if err != nil {
				return fmt.Errorf("seed tenant: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded tenant %s (%s).\n", seeded.ID, seeded.DisplayName)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&tenantID, "tenant-id", "", "Identifier for the first franchise (optional)")
	c.Flags().StringVar(&tenantName, "tenant-name", "", "Display name for the first franchise")

	_ = c.MarkFlagRequired("database-url")

	return c
}
