package class

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/RIKASH04/Resulyhub/common/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Repository interface {
	List(ctx context.Context) ([]ClassSummary, error)
	Stats(ctx context.Context) (*Stats, error)
	// CreateMany inserts the named classes, skipping names that already exist,
	// and returns only the rows it inserted.
	CreateMany(ctx context.Context, names []string) ([]Class, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Class, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db      bun.IDB
	metrics *metrics.Metrics
}

func NewRepository(db bun.IDB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) List(ctx context.Context) ([]ClassSummary, error) {
	start := time.Now()
	classes := make([]ClassSummary, 0)
	err := r.db.NewSelect().
		Model(&classes).
		ColumnExpr("c.*").
		ColumnExpr("(SELECT count(*) FROM subjects AS sub WHERE sub.class_id = c.id) AS subject_count").
		ColumnExpr("(SELECT count(*) FROM students AS st WHERE st.class_id = c.id) AS student_count").
		OrderExpr("length(c.name) ASC, c.name ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "classes", time.Since(start), err)

	return classes, err
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	start := time.Now()
	stats := new(Stats)
	err := r.db.NewRaw(`SELECT
		(SELECT count(*) FROM classes) AS classes,
		(SELECT count(*) FROM students) AS students,
		(SELECT count(*) FROM subjects) AS subjects`).
		Scan(ctx, stats)

	r.metrics.Database.RecordQuery(ctx, "select", "classes", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *repository) CreateMany(ctx context.Context, names []string) ([]Class, error) {
	created := make([]Class, 0, len(names))
	if len(names) == 0 {
		return created, nil
	}

	classes := make([]Class, len(names))
	for i, name := range names {
		classes[i] = Class{ID: uuid.New(), Name: name}
	}

	start := time.Now()
	_, err := r.db.NewInsert().
		Model(&classes).
		On("CONFLICT (name) DO NOTHING").
		Returning("id, name, created_at").
		Exec(ctx, &created)

	r.metrics.Database.RecordQuery(ctx, "insert", "classes", time.Since(start), err)

	return created, err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Class, error) {
	start := time.Now()
	class := new(Class)
	err := r.db.NewSelect().Model(class).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "classes", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return class, nil
}

// Delete relies on ON DELETE CASCADE for subjects, students, marks and
// summaries.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	result, err := r.db.NewDelete().Model((*Class)(nil)).Where("id = ?", id).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "classes", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrClassNotFound
	}
	return nil
}
