// Package testdb starts one PostgreSQL testcontainer per test binary and
// migrates it with the service's own migrations.
//
// Tests sharing the container must not run in parallel; isolate them with
// CleanupTables at the start of every subtest:
//
//	func TestRepository(t *testing.T) {
//	    pg := testdb.SetupSharedPostgres(t)
//
//	    t.Run("Create", func(t *testing.T) {
//	        testdb.CleanupTables(t, pg.DB, testdb.AllTables...)
//	        // ...
//	    })
//	}
package testdb

import (
	"context"
	"sync"
	"testing"

	"github.com/RIKASH04/Resulyhub/internal/db"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
)

// AllTables lists every domain table, parents first.
var AllTables = []string{"classes", "subjects", "students", "marks", "result_summaries", "refresh_tokens"}

var (
	sharedContainer *PostgresContainer
	sharedErr       error
	sharedOnce      sync.Once
)

type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DB        *bun.DB
	DSN       string
}

// SetupSharedPostgres returns the shared, fully migrated container. The
// container is reaped by testcontainers when the test binary exits.
func SetupSharedPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	sharedOnce.Do(func() {
		sharedContainer, sharedErr = start(context.Background())
	})
	require.NoError(t, sharedErr, "failed to start postgres container")

	return sharedContainer
}

func start(ctx context.Context) (*PostgresContainer, error) {
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		),
	)
	if err != nil {
		return nil, err
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, err
	}

	database, err := db.NewWithDSN(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if _, err := db.Migrate(ctx, database); err != nil {
		return nil, err
	}

	return &PostgresContainer{
		Container: pgContainer,
		DB:        database,
		DSN:       dsn,
	}, nil
}

func CleanupTables(t *testing.T, db *bun.DB, tables ...string) {
	t.Helper()

	ctx := context.Background()

	for _, table := range tables {
		_, err := db.ExecContext(ctx, "TRUNCATE "+table+" RESTART IDENTITY CASCADE")
		require.NoError(t, err, "failed to truncate table: %s", table)
	}
}
