package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

var resultsSchemaUp = []string{
	`CREATE TABLE IF NOT EXISTS classes (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(100) NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS subjects (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		class_id UUID NOT NULL REFERENCES classes (id) ON DELETE CASCADE,
		name VARCHAR(100) NOT NULL,
		max_marks INTEGER NOT NULL DEFAULT 100 CHECK (max_marks > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS subjects_class_id_idx ON subjects (class_id)`,
	`CREATE TABLE IF NOT EXISTS students (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		class_id UUID NOT NULL REFERENCES classes (id) ON DELETE CASCADE,
		name VARCHAR(200) NOT NULL,
		register_number VARCHAR(50) NOT NULL UNIQUE,
		father_name VARCHAR(200),
		photo_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS students_class_id_idx ON students (class_id)`,
	`CREATE TABLE IF NOT EXISTS marks (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		student_id UUID NOT NULL REFERENCES students (id) ON DELETE CASCADE,
		subject_id UUID NOT NULL REFERENCES subjects (id) ON DELETE CASCADE,
		marks_obtained INTEGER NOT NULL DEFAULT 0,
		UNIQUE (student_id, subject_id)
	)`,
	`CREATE TABLE IF NOT EXISTS result_summaries (
		student_id UUID PRIMARY KEY REFERENCES students (id) ON DELETE CASCADE,
		total INTEGER NOT NULL,
		max_total INTEGER NOT NULL,
		percentage NUMERIC(5, 2) NOT NULL,
		grade VARCHAR(4) NOT NULL,
		status VARCHAR(8) NOT NULL,
		policy VARCHAR(32) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email VARCHAR(255) NOT NULL,
		token VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS refresh_tokens_expires_at_idx ON refresh_tokens (expires_at)`,
}

var resultsSchemaDown = []string{
	`DROP TABLE IF EXISTS refresh_tokens`,
	`DROP TABLE IF EXISTS result_summaries`,
	`DROP TABLE IF EXISTS marks`,
	`DROP TABLE IF EXISTS students`,
	`DROP TABLE IF EXISTS subjects`,
	`DROP TABLE IF EXISTS classes`,
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execAll(ctx, db, resultsSchemaUp)
		},
		func(ctx context.Context, db *bun.DB) error {
			return execAll(ctx, db, resultsSchemaDown)
		},
	)
}

func execAll(ctx context.Context, db *bun.DB, stmts []string) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration statement failed: %w", err)
			}
		}
		return nil
	})
}
