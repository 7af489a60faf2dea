//go:build integration

package containers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"profilegate/internal/platform/database"
	"profilegate/migrations"
)

// PostgresContainer wraps a Postgres instance and the pool connected to it.
// Container is nil when an external database was supplied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	Pool      *database.Pool
}

// NewPostgresContainer starts Postgres and applies the embedded migrations.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()
	pc := &PostgresContainer{DSN: os.Getenv("PP_TEST_DATABASE_URL")}

	if pc.DSN == "" {
		container, err := postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("profilegate_test"),
			postgres.WithUsername("profilegate"),
			postgres.WithPassword("profilegate_test_password"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}
		pc.Container = container

		pc.DSN, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = container.Terminate(ctx)
			t.Fatalf("failed to get postgres connection string: %v", err)
		}
	}

	cfg := database.DefaultConfig()
	cfg.URL = pc.DSN
	pool, err := database.New(cfg)
	if err != nil {
		pc.terminate(ctx)
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	pc.Pool = pool

	if err := pool.Migrate(ctx, migrations.FS); err != nil {
		_ = pool.Close()
		pc.terminate(ctx)
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Ryuk removes the container when the test process exits, so no
	// t.Cleanup is registered for the shared instance.
	return pc
}

func (p *PostgresContainer) terminate(ctx context.Context) {
	if p.Container != nil {
		_ = p.Container.Terminate(ctx)
	}
}

// TruncateTables clears all data from the specified tables.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.Pool.DB().ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// TruncateAll truncates every table owned by the service.
func (p *PostgresContainer) TruncateAll(ctx context.Context) error {
	return p.TruncateTables(ctx, "pp_audit_events")
}
