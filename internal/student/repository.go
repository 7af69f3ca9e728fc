package student

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
	Create(ctx context.Context, student *Student) error
	GetByID(ctx context.Context, id uuid.UUID) (*Student, error)
	GetByRegisterNumber(ctx context.Context, registerNumber string) (*Student, error)
	RegisterNumberExists(ctx context.Context, registerNumber string) (bool, error)
	ListByClass(ctx context.Context, classID uuid.UUID) ([]Student, error)
	ClassExists(ctx context.Context, classID uuid.UUID) (bool, error)
	Update(ctx context.Context, student *Student) error
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

func (r *repository) Create(ctx context.Context, student *Student) error {
	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}

	start := time.Now()
	_, err := r.db.NewInsert().Model(student).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "students", time.Since(start), err)

	if err != nil {
		switch {
		case db.IsUniqueViolation(err):
			return ErrDuplicateRegisterNumber
		case db.IsForeignKeyViolation(err):
			return ErrClassNotFound
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Student, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *repository) GetByRegisterNumber(ctx context.Context, registerNumber string) (*Student, error) {
	return r.getWhere(ctx, "register_number = ?", NormalizeRegisterNumber(registerNumber))
}

func (r *repository) getWhere(ctx context.Context, where string, arg any) (*Student, error) {
	start := time.Now()
	student := new(Student)
	err := r.db.NewSelect().Model(student).Where(where, arg).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func (r *repository) RegisterNumberExists(ctx context.Context, registerNumber string) (bool, error) {
	start := time.Now()
	exists, err := r.db.NewSelect().
		Model((*Student)(nil)).
		Where("register_number = ?", NormalizeRegisterNumber(registerNumber)).
		Exists(ctx)

	r.metrics.Database.RecordQuery(ctx, "exists", "students", time.Since(start), err)

	return exists, err
}

func (r *repository) ListByClass(ctx context.Context, classID uuid.UUID) ([]Student, error) {
	start := time.Now()
	students := make([]Student, 0)
	err := r.db.NewSelect().
		Model(&students).
		Where("class_id = ?", classID).
		OrderExpr("name ASC, register_number ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	return students, err
}

func (r *repository) ClassExists(ctx context.Context, classID uuid.UUID) (bool, error) {
	start := time.Now()
	exists, err := r.db.NewSelect().
		Table("classes").
		Where("id = ?", classID).
		Exists(ctx)

	r.metrics.Database.RecordQuery(ctx, "exists", "classes", time.Since(start), err)

	return exists, err
}

func (r *repository) Update(ctx context.Context, student *Student) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(student).
		Column("name", "father_name", "photo_url").
		WherePK().
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "students", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	result, err := r.db.NewDelete().Model((*Student)(nil)).Where("id = ?", id).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "students", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}
