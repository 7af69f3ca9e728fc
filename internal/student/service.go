package student

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RIKASH04/Resulyhub/common/metrics"
	"github.com/RIKASH04/Resulyhub/internal/events"
	"github.com/RIKASH04/Resulyhub/internal/grading"
	"github.com/RIKASH04/Resulyhub/internal/mark"
	svcmetrics "github.com/RIKASH04/Resulyhub/internal/metrics"
	"github.com/RIKASH04/Resulyhub/internal/subject"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrStudentNotFound         = errors.New("student not found")
	ErrClassNotFound           = errors.New("class not found")
	ErrDuplicateRegisterNumber = errors.New("register number already exists")
	ErrNoSubjects              = errors.New("add at least one subject first")
	ErrInvalidInput            = errors.New("invalid input")
)

// SummaryWriter keeps a student's result summary in step with its marks.
// RecomputeTx joins the caller's transaction; NotifyUpdated runs after commit.
type SummaryWriter interface {
	RecomputeTx(ctx context.Context, idb bun.IDB, studentID uuid.UUID) (grading.Summary, error)
	NotifyUpdated(ctx context.Context, studentIDs []uuid.UUID)
}

type Service interface {
	CreateStudent(ctx context.Context, classID uuid.UUID, req CreateStudentRequest) (*Student, error)
	GetStudent(ctx context.Context, id uuid.UUID) (*Student, error)
	UpdateStudent(ctx context.Context, id uuid.UUID, req UpdateStudentRequest) (*Student, error)
	DeleteStudent(ctx context.Context, id uuid.UUID) error
	GetMarks(ctx context.Context, id uuid.UUID) (*StudentMarks, error)
	UpdateMarks(ctx context.Context, id uuid.UUID, req UpdateMarksRequest) (*grading.Summary, error)
}

type service struct {
	db        *bun.DB
	dbMetrics *metrics.Metrics
	metrics   *svcmetrics.Metrics
	summaries SummaryWriter
	events    *events.Publisher
	logger    *slog.Logger
}

func NewService(db *bun.DB, dbMetrics *metrics.Metrics, m *svcmetrics.Metrics, summaries SummaryWriter, publisher *events.Publisher, logger *slog.Logger) Service {
	return &service{
		db:        db,
		dbMetrics: dbMetrics,
		metrics:   m,
		summaries: summaries,
		events:    publisher,
		logger:    logger,
	}
}

func (s *service) CreateStudent(ctx context.Context, classID uuid.UUID, req CreateStudentRequest) (*Student, error) {
	name := strings.TrimSpace(req.Name)
	registerNumber := NormalizeRegisterNumber(req.RegisterNumber)
	if name == "" || registerNumber == "" {
		return nil, fmt.Errorf("%w: name and register number are required", ErrInvalidInput)
	}

	repo := NewRepository(s.db, s.dbMetrics)

	exists, err := repo.ClassExists(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrClassNotFound
	}

	subjects, err := subject.NewRepository(s.db, s.dbMetrics).ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if len(subjects) == 0 {
		return nil, ErrNoSubjects
	}

	marks, err := marksFor(subjects, req.Marks, nil)
	if err != nil {
		return nil, err
	}

	taken, err := repo.RegisterNumberExists(ctx, registerNumber)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateRegisterNumber
	}

	student := &Student{
		ClassID:        classID,
		Name:           name,
		RegisterNumber: registerNumber,
		FatherName:     optional(req.FatherName),
		PhotoURL:       optional(req.PhotoURL),
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := NewRepository(tx, s.dbMetrics).Create(ctx, student); err != nil {
			return err
		}
		for i := range marks {
			marks[i].StudentID = student.ID
		}
		if err := mark.NewRepository(tx, s.dbMetrics).Upsert(ctx, marks); err != nil {
			return fmt.Errorf("insert marks: %w", err)
		}
		_, err := s.summaries.RecomputeTx(ctx, tx, student.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordStudentCreated(ctx)
	s.summaries.NotifyUpdated(ctx, []uuid.UUID{student.ID})
	s.logger.InfoContext(ctx, "student created", "student_id", student.ID, "register_number", student.RegisterNumber)

	return student, nil
}

func (s *service) GetStudent(ctx context.Context, id uuid.UUID) (*Student, error) {
	return NewRepository(s.db, s.dbMetrics).GetByID(ctx, id)
}

func (s *service) UpdateStudent(ctx context.Context, id uuid.UUID, req UpdateStudentRequest) (*Student, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	repo := NewRepository(s.db, s.dbMetrics)
	student := &Student{
		ID:         id,
		Name:       name,
		FatherName: optional(req.FatherName),
		PhotoURL:   optional(req.PhotoURL),
	}
	if err := repo.Update(ctx, student); err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, id)
}

// DeleteStudent removes marks, summary and student in one transaction.
func (s *service) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	var deleted *Student
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repo := NewRepository(tx, s.dbMetrics)

		student, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if _, err := mark.NewRepository(tx, s.dbMetrics).DeleteByStudent(ctx, id); err != nil {
			return fmt.Errorf("delete marks: %w", err)
		}
		if _, err := tx.NewDelete().Table("result_summaries").Where("student_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete summary: %w", err)
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		deleted = student
		return nil
	})
	if err != nil {
		return err
	}

	s.events.Publish(ctx, deleted.RegisterNumber, events.TypeStudentDeleted, events.StudentDeleted{
		StudentID:      deleted.ID.String(),
		RegisterNumber: deleted.RegisterNumber,
	})
	return nil
}

func (s *service) GetMarks(ctx context.Context, id uuid.UUID) (*StudentMarks, error) {
	student, err := NewRepository(s.db, s.dbMetrics).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	subjects, err := subject.NewRepository(s.db, s.dbMetrics).ListByClass(ctx, student.ClassID)
	if err != nil {
		return nil, err
	}
	marks, err := mark.NewRepository(s.db, s.dbMetrics).ListByStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	obtained := mark.BySubject(marks)
	entries := make([]MarkEntry, 0, len(subjects))
	for _, sub := range subjects {
		entries = append(entries, MarkEntry{
			SubjectID:     sub.ID,
			SubjectName:   sub.Name,
			MaxMarks:      sub.MaxMarks,
			MarksObtained: obtained[sub.ID],
		})
	}

	return &StudentMarks{Student: student, Marks: entries}, nil
}

// UpdateMarks upserts one mark per class subject and rewrites the summary in
// the same transaction.
func (s *service) UpdateMarks(ctx context.Context, id uuid.UUID, req UpdateMarksRequest) (*grading.Summary, error) {
	var summary grading.Summary
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		student, err := NewRepository(tx, s.dbMetrics).GetByID(ctx, id)
		if err != nil {
			return err
		}

		subjects, err := subject.NewRepository(tx, s.dbMetrics).ListByClass(ctx, student.ClassID)
		if err != nil {
			return err
		}

		markRepo := mark.NewRepository(tx, s.dbMetrics)
		current, err := markRepo.ListByStudent(ctx, id)
		if err != nil {
			return err
		}

		marks, err := marksFor(subjects, req.Marks, mark.BySubject(current))
		if err != nil {
			return err
		}
		for i := range marks {
			marks[i].StudentID = id
		}

		if err := markRepo.Upsert(ctx, marks); err != nil {
			return fmt.Errorf("upsert marks: %w", err)
		}

		summary, err = s.summaries.RecomputeTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMarksUpdated(ctx)
	s.summaries.NotifyUpdated(ctx, []uuid.UUID{id})

	return &summary, nil
}

// marksFor builds one mark per subject from the submitted inputs. Subjects
// without an input keep their current mark, or 0; inputs for foreign subjects
// or outside 0..max_marks are rejected.
func marksFor(subjects []subject.Subject, inputs []MarkInput, current map[uuid.UUID]int) ([]mark.Mark, error) {
	bySubject := make(map[uuid.UUID]subject.Subject, len(subjects))
	for _, sub := range subjects {
		bySubject[sub.ID] = sub
	}

	given := make(map[uuid.UUID]int, len(subjects))
	for id, v := range current {
		given[id] = v
	}
	for _, in := range inputs {
		sub, ok := bySubject[in.SubjectID]
		if !ok {
			return nil, fmt.Errorf("%w: subject %s is not part of this class", ErrInvalidInput, in.SubjectID)
		}
		if in.MarksObtained < 0 || in.MarksObtained > sub.MaxMarks {
			return nil, fmt.Errorf("%w: marks for %s must be between 0 and %d", ErrInvalidInput, sub.Name, sub.MaxMarks)
		}
		given[in.SubjectID] = in.MarksObtained
	}

	marks := make([]mark.Mark, 0, len(subjects))
	for _, sub := range subjects {
		marks = append(marks, mark.Mark{SubjectID: sub.ID, MarksObtained: given[sub.ID]})
	}
	return marks, nil
}
