package subject

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RIKASH04/Resulyhub/common/metrics"
	"github.com/RIKASH04/Resulyhub/internal/db"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, subject *Subject) error
	GetByID(ctx context.Context, id uuid.UUID) (*Subject, error)
	ListByClass(ctx context.Context, classID uuid.UUID) ([]Subject, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db      bun.IDB
	metrics *metrics.Metrics
}

// NewRepository works on a *bun.DB or inside a bun.Tx.
func NewRepository(db bun.IDB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) Create(ctx context.Context, subject *Subject) error {
	if subject.ID == uuid.Nil {
		subject.ID = uuid.New()
	}

	start := time.Now()
	_, err := r.db.NewInsert().Model(subject).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "subjects", time.Since(start), err)

	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrClassNotFound
		}
		return fmt.Errorf("insert subject: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Subject, error) {
	start := time.Now()
	subject := new(Subject)
	err := r.db.NewSelect().Model(subject).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "subjects", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}
	return subject, nil
}

func (r *repository) ListByClass(ctx context.Context, classID uuid.UUID) ([]Subject, error) {
	start := time.Now()
	subjects := make([]Subject, 0)
	err := r.db.NewSelect().
		Model(&subjects).
		Where("class_id = ?", classID).
		OrderExpr("name ASC, created_at ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "subjects", time.Since(start), err)

	return subjects, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	result, err := r.db.NewDelete().Model((*Subject)(nil)).Where("id = ?", id).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "subjects", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSubjectNotFound
	}
	return nil
}
