package mark

import (
	"context"
	"time"

	"github.com/RIKASH04/Resulyhub/common/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Repository interface {
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]Mark, error)
	ListByStudents(ctx context.Context, studentIDs []uuid.UUID) ([]Mark, error)
	// Upsert writes every mark keyed by (student_id, subject_id); the last
	// write wins.
	Upsert(ctx context.Context, marks []Mark) error
	DeleteBySubject(ctx context.Context, subjectID uuid.UUID) (int64, error)
	DeleteByStudent(ctx context.Context, studentID uuid.UUID) (int64, error)
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

func (r *repository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]Mark, error) {
	start := time.Now()
	marks := make([]Mark, 0)
	err := r.db.NewSelect().Model(&marks).Where("student_id = ?", studentID).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "marks", time.Since(start), err)

	return marks, err
}

func (r *repository) ListByStudents(ctx context.Context, studentIDs []uuid.UUID) ([]Mark, error) {
	marks := make([]Mark, 0)
	if len(studentIDs) == 0 {
		return marks, nil
	}

	start := time.Now()
	err := r.db.NewSelect().Model(&marks).Where("student_id IN (?)", bun.In(studentIDs)).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "marks", time.Since(start), err)

	return marks, err
}

func (r *repository) Upsert(ctx context.Context, marks []Mark) error {
	if len(marks) == 0 {
		return nil
	}
	for i := range marks {
		if marks[i].ID == uuid.Nil {
			marks[i].ID = uuid.New()
		}
	}

	start := time.Now()
	_, err := r.db.NewInsert().
		Model(&marks).
		On("CONFLICT (student_id, subject_id) DO UPDATE").
		Set("marks_obtained = EXCLUDED.marks_obtained").
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "upsert", "marks", time.Since(start), err)

	return err
}

func (r *repository) DeleteBySubject(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	return r.deleteWhere(ctx, "subject_id = ?", subjectID)
}

func (r *repository) DeleteByStudent(ctx context.Context, studentID uuid.UUID) (int64, error) {
	return r.deleteWhere(ctx, "student_id = ?", studentID)
}

func (r *repository) deleteWhere(ctx context.Context, where string, id uuid.UUID) (int64, error) {
	start := time.Now()
	result, err := r.db.NewDelete().Model((*Mark)(nil)).Where(where, id).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "marks", time.Since(start), err)

	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
