package subject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RIKASH04/Resulyhub/common/metrics"
	"github.com/RIKASH04/Resulyhub/internal/mark"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrSubjectNotFound = errors.New("subject not found")
	ErrClassNotFound   = errors.New("class not found")
	ErrInvalidInput    = errors.New("invalid input")
)

// SummaryRefresher recomputes the result summaries of a whole class. The Tx
// variant joins the caller's transaction; NotifyUpdated runs after commit.
type SummaryRefresher interface {
	RecomputeClassTx(ctx context.Context, idb bun.IDB, classID uuid.UUID) ([]uuid.UUID, error)
	NotifyUpdated(ctx context.Context, studentIDs []uuid.UUID)
}

type Service interface {
	CreateSubject(ctx context.Context, classID uuid.UUID, req CreateSubjectRequest) (*Subject, error)
	ListByClass(ctx context.Context, classID uuid.UUID) ([]Subject, error)
	DeleteSubject(ctx context.Context, id uuid.UUID) error
}

type service struct {
	db        *bun.DB
	metrics   *metrics.Metrics
	summaries SummaryRefresher
	// ceiling pins every subject's max marks when the grading policy has a
	// fixed per-subject maximum; 0 leaves it to the request.
	ceiling int
	logger  *slog.Logger
}

func NewService(db *bun.DB, m *metrics.Metrics, summaries SummaryRefresher, ceiling int, logger *slog.Logger) Service {
	return &service{
		db:        db,
		metrics:   m,
		summaries: summaries,
		ceiling:   ceiling,
		logger:    logger,
	}
}

func (s *service) CreateSubject(ctx context.Context, classID uuid.UUID, req CreateSubjectRequest) (*Subject, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: subject name is required", ErrInvalidInput)
	}

	maxMarks := DefaultMaxMarks
	if req.MaxMarks != nil {
		maxMarks = *req.MaxMarks
	}
	if s.ceiling > 0 {
		maxMarks = s.ceiling
	}
	if maxMarks <= 0 {
		return nil, fmt.Errorf("%w: max marks must be positive", ErrInvalidInput)
	}

	subject := &Subject{ClassID: classID, Name: name, MaxMarks: maxMarks}

	var refreshed []uuid.UUID
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := NewRepository(tx, s.metrics).Create(ctx, subject); err != nil {
			return err
		}
		ids, err := s.summaries.RecomputeClassTx(ctx, tx, classID)
		refreshed = ids
		return err
	})
	if err != nil {
		return nil, err
	}

	s.summaries.NotifyUpdated(ctx, refreshed)
	return subject, nil
}

func (s *service) ListByClass(ctx context.Context, classID uuid.UUID) ([]Subject, error) {
	return NewRepository(s.db, s.metrics).ListByClass(ctx, classID)
}

// DeleteSubject removes the subject with its marks and refreshes the class
// summaries in one transaction.
func (s *service) DeleteSubject(ctx context.Context, id uuid.UUID) error {
	var refreshed []uuid.UUID
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repo := NewRepository(tx, s.metrics)

		subject, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		removed, err := mark.NewRepository(tx, s.metrics).DeleteBySubject(ctx, id)
		if err != nil {
			return fmt.Errorf("delete marks of subject: %w", err)
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}

		s.logger.InfoContext(ctx, "subject deleted", "subject_id", id, "class_id", subject.ClassID, "marks_removed", removed)

		refreshed, err = s.summaries.RecomputeClassTx(ctx, tx, subject.ClassID)
		return err
	})
	if err != nil {
		return err
	}

	s.summaries.NotifyUpdated(ctx, refreshed)
	return nil
}
