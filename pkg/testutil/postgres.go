package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pgpkg "github.com/healthbox/diabetes-risk/pkg/postgres"
)

const postgresImage = "postgres:16-alpine"

// PostgresContainer is a disposable database with an open pool.
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN  string
	Pool *pgxpool.Pool
}

// NewPostgresContainer fails the test if the database cannot be reached.
func NewPostgresContainer(ctx context.Context, t *testing.T) *PostgresContainer {
	t.Helper()

	c, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("risk"),
		postgres.WithUsername("risk"),
		postgres.WithPassword("risk"),
		testcontainers.WithWaitStrategy(
			// The server logs readiness once for initdb and once for real.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("starting postgres: %v", err)
	}
	terminateOnCleanup(t, "postgres", c)

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}

	pool, err := pgpkg.NewPool(ctx, pgpkg.Config{URL: dsn})
	if err != nil {
		t.Fatalf("connecting to postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	return &PostgresContainer{PostgresContainer: c, DSN: dsn, Pool: pool}
}

// RunMigrations applies every up migration in dir.
func (pc *PostgresContainer) RunMigrations(t *testing.T, dir string) {
	t.Helper()

	abs, err := filepath.Abs(dir)
	if err != nil {
		t.Fatalf("resolving %s: %v", dir, err)
	}
	if err := pgpkg.RunMigrations(pc.DSN, "file://"+filepath.ToSlash(abs)); err != nil {
		t.Fatalf("migrating: %v", err)
	}
}
