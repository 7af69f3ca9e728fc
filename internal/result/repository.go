package result

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
	// Upsert overwrites the summary keyed by student_id; the last write wins.
	Upsert(ctx context.Context, summary *ResultSummary) error
	GetByStudent(ctx context.Context, studentID uuid.UUID) (*ResultSummary, error)
	ListByStudents(ctx context.Context, studentIDs []uuid.UUID) (map[uuid.UUID]*ResultSummary, error)
	ListWithRegisterNumbers(ctx context.Context, studentIDs []uuid.UUID) ([]RegisteredSummary, error)
	ClassName(ctx context.Context, classID uuid.UUID) (string, error)
	ClassIDs(ctx context.Context) ([]uuid.UUID, error)
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

func (r *repository) Upsert(ctx context.Context, summary *ResultSummary) error {
	start := time.Now()
	_, err := r.db.NewInsert().
		Model(summary).
		On("CONFLICT (student_id) DO UPDATE").
		Set("total = EXCLUDED.total").
		Set("max_total = EXCLUDED.max_total").
		Set("percentage = EXCLUDED.percentage").
		Set("grade = EXCLUDED.grade").
		Set("status = EXCLUDED.status").
		Set("policy = EXCLUDED.policy").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "upsert", "result_summaries", time.Since(start), err)

	return err
}

func (r *repository) GetByStudent(ctx context.Context, studentID uuid.UUID) (*ResultSummary, error) {
	start := time.Now()
	summary := new(ResultSummary)
	err := r.db.NewSelect().Model(summary).Where("student_id = ?", studentID).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "result_summaries", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSummaryNotFound
		}
		return nil, err
	}
	return summary, nil
}

func (r *repository) ListByStudents(ctx context.Context, studentIDs []uuid.UUID) (map[uuid.UUID]*ResultSummary, error) {
	out := make(map[uuid.UUID]*ResultSummary, len(studentIDs))
	if len(studentIDs) == 0 {
		return out, nil
	}

	start := time.Now()
	var summaries []ResultSummary
	err := r.db.NewSelect().Model(&summaries).Where("student_id IN (?)", bun.In(studentIDs)).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "result_summaries", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	for i := range summaries {
		out[summaries[i].StudentID] = &summaries[i]
	}
	return out, nil
}

func (r *repository) ListWithRegisterNumbers(ctx context.Context, studentIDs []uuid.UUID) ([]RegisteredSummary, error) {
	rows := make([]RegisteredSummary, 0, len(studentIDs))
	if len(studentIDs) == 0 {
		return rows, nil
	}

	start := time.Now()
	err := r.db.NewSelect().
		Model(&rows).
		ColumnExpr("rs.*").
		ColumnExpr("st.register_number").
		Join("JOIN students AS st ON st.id = rs.student_id").
		Where("rs.student_id IN (?)", bun.In(studentIDs)).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "result_summaries", time.Since(start), err)

	return rows, err
}

func (r *repository) ClassName(ctx context.Context, classID uuid.UUID) (string, error) {
	start := time.Now()
	var name string
	err := r.db.NewSelect().Table("classes").Column("name").Where("id = ?", classID).Scan(ctx, &name)

	r.metrics.Database.RecordQuery(ctx, "select", "classes", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrClassNotFound
		}
		return "", err
	}
	return name, nil
}

func (r *repository) ClassIDs(ctx context.Context) ([]uuid.UUID, error) {
	start := time.Now()
	ids := make([]uuid.UUID, 0)
	err := r.db.NewSelect().Table("classes").Column("id").Order("name").Scan(ctx, &ids)

	r.metrics.Database.RecordQuery(ctx, "select", "classes", time.Since(start), err)

	return ids, err
}
