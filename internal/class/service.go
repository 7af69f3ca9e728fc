package class

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/RIKASH04/Resulyhub/common/metrics"
	"github.com/RIKASH04/Resulyhub/internal/events"
	svcmetrics "github.com/RIKASH04/Resulyhub/internal/metrics"
	"github.com/RIKASH04/Resulyhub/internal/result"
	"github.com/RIKASH04/Resulyhub/internal/subject"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrClassNotFound = errors.New("class not found")
	ErrInvalidInput  = errors.New("invalid input")
)

// StudentResults lists a class's students with their cached summaries.
type StudentResults interface {
	ClassStudents(ctx context.Context, classID uuid.UUID) ([]result.StudentResult, error)
}

type Service interface {
	ListClasses(ctx context.Context) ([]ClassSummary, error)
	Stats(ctx context.Context) (*Stats, error)
	CreateClasses(ctx context.Context, count int) ([]Class, error)
	GetClass(ctx context.Context, id uuid.UUID) (*ClassDetail, error)
	DeleteClass(ctx context.Context, id uuid.UUID) error
}

type service struct {
	db        *bun.DB
	dbMetrics *metrics.Metrics
	metrics   *svcmetrics.Metrics
	results   StudentResults
	events    *events.Publisher
	logger    *slog.Logger
}

func NewService(db *bun.DB, dbMetrics *metrics.Metrics, m *svcmetrics.Metrics, results StudentResults, publisher *events.Publisher, logger *slog.Logger) Service {
	return &service{
		db:        db,
		dbMetrics: dbMetrics,
		metrics:   m,
		results:   results,
		events:    publisher,
		logger:    logger,
	}
}

func (s *service) ListClasses(ctx context.Context) ([]ClassSummary, error) {
	return NewRepository(s.db, s.dbMetrics).List(ctx)
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	return NewRepository(s.db, s.dbMetrics).Stats(ctx)
}

// CreateClasses creates "Class 1" .. "Class count"; names that already exist
// are skipped and missing from the result.
func (s *service) CreateClasses(ctx context.Context, count int) ([]Class, error) {
	if count < 1 || count > MaxBulkCreate {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidInput, MaxBulkCreate)
	}

	created, err := NewRepository(s.db, s.dbMetrics).CreateMany(ctx, Names(count))
	if err != nil {
		return nil, err
	}

	s.metrics.RecordClassesCreated(ctx, len(created))
	s.logger.InfoContext(ctx, "classes created", "requested", count, "created", len(created))
	return created, nil
}

func (s *service) GetClass(ctx context.Context, id uuid.UUID) (*ClassDetail, error) {
	class, err := NewRepository(s.db, s.dbMetrics).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	subjects, err := subject.NewRepository(s.db, s.dbMetrics).ListByClass(ctx, id)
	if err != nil {
		return nil, err
	}

	students, err := s.results.ClassStudents(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ClassDetail{Class: class, Subjects: subjects, Students: students}, nil
}

func (s *service) DeleteClass(ctx context.Context, id uuid.UUID) error {
	var deleted *Class
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repo := NewRepository(tx, s.dbMetrics)

		class, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		deleted = class
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "class deleted", "class_id", id, "name", deleted.Name)
	s.events.Publish(ctx, id.String(), events.TypeClassDeleted, events.ClassDeleted{
		ClassID: id.String(),
		Name:    deleted.Name,
	})
	return nil
}

// Names returns "Class 1" .. "Class n".
func Names(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Class %d", i+1)
	}
	return names
}
