package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/RIKASH04/Resulyhub/internal/config"
	"github.com/RIKASH04/Resulyhub/internal/db/migrations"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// ErrPendingMigrations is returned at startup when the schema is behind and
// auto-migration is disabled.
var ErrPendingMigrations = errors.New("database schema has pending migrations")

func DSN(cfg config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, sslMode)
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	db, err := NewWithDSN(ctx, DSN(cfg))
	if err != nil {
		return nil, err
	}
	configurePool(db.DB, cfg)
	return db, nil
}

// NewWithDSN opens and pings a connection; tests pass the container DSN here.
func NewWithDSN(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connected successfully")
	return db, nil
}

func configurePool(sqlDB *sql.DB, cfg config.DatabaseConfig) {
	maxOpen := orDefault(cfg.MaxOpenConns, 25)
	maxIdle := orDefault(cfg.MaxIdleConns, 10)
	lifetime := orDefault(cfg.ConnMaxLifetime, 300)
	idleTime := orDefault(cfg.ConnMaxIdleTime, 60)

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(time.Duration(lifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(idleTime) * time.Second)

	slog.Info("database pool configured",
		"max_open_conns", maxOpen,
		"max_idle_conns", maxIdle,
		"conn_max_lifetime_seconds", lifetime,
		"conn_max_idle_time_seconds", idleTime,
	)
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func Close(db *bun.DB) {
	if db != nil {
		db.Close()
	}
}

func NewMigrator(db *bun.DB) *migrate.Migrator {
	return migrate.NewMigrator(db, migrations.Migrations)
}

// Migrate applies every pending migration under the migration lock.
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	m := NewMigrator(db)
	if err := m.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to init migrations: %w", err)
	}
	if err := m.Lock(ctx); err != nil {
		return nil, fmt.Errorf("failed to lock migrations: %w", err)
	}
	defer m.Unlock(ctx) //nolint:errcheck

	group, err := m.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return group, nil
}

// Pending lists migrations not yet applied.
func Pending(ctx context.Context, db *bun.DB) (migrate.MigrationSlice, error) {
	m := NewMigrator(db)
	if err := m.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to init migrations: %w", err)
	}
	ms, err := m.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}
	return ms.Unapplied(), nil
}

// EnsureSchema is the startup check: with autoMigrate it brings the schema up
// to date, otherwise it fails on any pending migration.
func EnsureSchema(ctx context.Context, db *bun.DB, autoMigrate bool, logger *slog.Logger) error {
	if autoMigrate {
		group, err := Migrate(ctx, db)
		if err != nil {
			return err
		}
		if group.IsZero() {
			logger.Info("database schema is up to date")
		} else {
			logger.Info("database migrated", "group", group.String())
		}
		return nil
	}

	pending, err := Pending(ctx, db)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return fmt.Errorf("%w: %s", ErrPendingMigrations, pending)
	}
	return nil
}
