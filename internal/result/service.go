// Package result derives, caches and serves student result summaries.
package result

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/RIKASH04/Resulyhub/common/metrics"
	"github.com/RIKASH04/Resulyhub/internal/events"
	"github.com/RIKASH04/Resulyhub/internal/grading"
	"github.com/RIKASH04/Resulyhub/internal/mark"
	svcmetrics "github.com/RIKASH04/Resulyhub/internal/metrics"
	"github.com/RIKASH04/Resulyhub/internal/student"
	"github.com/RIKASH04/Resulyhub/internal/subject"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrResultNotFound  = errors.New("no result found for this register number")
	ErrNoMarks         = errors.New("no marks found for this student")
	ErrSummaryNotFound = errors.New("result summary not found")
	ErrClassNotFound   = errors.New("class not found")
)

const (
	outcomeSummary  = "summary"
	outcomeComputed = "computed"
	outcomeNotFound = "not_found"
)

type Service interface {
	Recompute(ctx context.Context, studentID uuid.UUID) (grading.Summary, error)
	RecomputeTx(ctx context.Context, idb bun.IDB, studentID uuid.UUID) (grading.Summary, error)
	RecomputeClass(ctx context.Context, classID uuid.UUID) (int, error)
	RecomputeClassTx(ctx context.Context, idb bun.IDB, classID uuid.UUID) ([]uuid.UUID, error)
	RecomputeAll(ctx context.Context) (int, error)
	NotifyUpdated(ctx context.Context, studentIDs []uuid.UUID)
	Lookup(ctx context.Context, registerNumber string) (*Marksheet, error)
	ClassStudents(ctx context.Context, classID uuid.UUID) ([]StudentResult, error)
	ExportClass(ctx context.Context, classID uuid.UUID, w io.Writer) error
}

type service struct {
	db        *bun.DB
	policy    grading.Policy
	dbMetrics *metrics.Metrics
	metrics   *svcmetrics.Metrics
	events    *events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(db *bun.DB, policy grading.Policy, dbMetrics *metrics.Metrics, m *svcmetrics.Metrics, publisher *events.Publisher, logger *slog.Logger) Service {
	return &service{
		db:        db,
		policy:    policy,
		dbMetrics: dbMetrics,
		metrics:   m,
		events:    publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *service) Recompute(ctx context.Context, studentID uuid.UUID) (grading.Summary, error) {
	var summary grading.Summary
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		summary, err = s.RecomputeTx(ctx, tx, studentID)
		return err
	})
	if err != nil {
		return grading.Summary{}, err
	}

	s.NotifyUpdated(ctx, []uuid.UUID{studentID})
	return summary, nil
}

// RecomputeTx grades the student's marks over every subject of its class
// (missing marks count as 0) and upserts the summary through idb.
func (s *service) RecomputeTx(ctx context.Context, idb bun.IDB, studentID uuid.UUID) (grading.Summary, error) {
	st, err := student.NewRepository(idb, s.dbMetrics).GetByID(ctx, studentID)
	if err != nil {
		return grading.Summary{}, err
	}

	subjects, err := subject.NewRepository(idb, s.dbMetrics).ListByClass(ctx, st.ClassID)
	if err != nil {
		return grading.Summary{}, err
	}

	marks, err := mark.NewRepository(idb, s.dbMetrics).ListByStudent(ctx, studentID)
	if err != nil {
		return grading.Summary{}, err
	}

	summary := s.policy.Summarize(entries(subjects, mark.BySubject(marks)))
	if err := NewRepository(idb, s.dbMetrics).Upsert(ctx, newResultSummary(studentID, summary, s.now())); err != nil {
		return grading.Summary{}, fmt.Errorf("upsert summary: %w", err)
	}
	return summary, nil
}

func (s *service) RecomputeClass(ctx context.Context, classID uuid.UUID) (int, error) {
	var ids []uuid.UUID
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		ids, err = s.RecomputeClassTx(ctx, tx, classID)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.NotifyUpdated(ctx, ids)
	return len(ids), nil
}

// RecomputeClassTx rewrites the summary of every student in the class and
// returns their ids.
func (s *service) RecomputeClassTx(ctx context.Context, idb bun.IDB, classID uuid.UUID) ([]uuid.UUID, error) {
	students, err := student.NewRepository(idb, s.dbMetrics).ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, nil
	}

	subjects, err := subject.NewRepository(idb, s.dbMetrics).ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(students))
	for i := range students {
		ids[i] = students[i].ID
	}

	marks, err := mark.NewRepository(idb, s.dbMetrics).ListByStudents(ctx, ids)
	if err != nil {
		return nil, err
	}
	byStudent := make(map[uuid.UUID][]mark.Mark, len(students))
	for _, m := range marks {
		byStudent[m.StudentID] = append(byStudent[m.StudentID], m)
	}

	repo := NewRepository(idb, s.dbMetrics)
	now := s.now()
	for _, id := range ids {
		summary := s.policy.Summarize(entries(subjects, mark.BySubject(byStudent[id])))
		if err := repo.Upsert(ctx, newResultSummary(id, summary, now)); err != nil {
			return nil, fmt.Errorf("upsert summary: %w", err)
		}
	}
	return ids, nil
}

// RecomputeAll rebuilds every summary from the raw marks, one transaction
// per class. It does not publish events.
func (s *service) RecomputeAll(ctx context.Context) (int, error) {
	classIDs, err := NewRepository(s.db, s.dbMetrics).ClassIDs(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, classID := range classIDs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			ids, err := s.RecomputeClassTx(ctx, tx, classID)
			total += len(ids)
			return err
		})
		if err != nil {
			return total, fmt.Errorf("recompute class %s: %w", classID, err)
		}
	}

	s.metrics.RecordSummariesRecomputed(ctx, "reconcile", total)
	return total, nil
}

// NotifyUpdated publishes summary.updated for every student. It never fails;
// a lookup error is logged and the events are dropped.
func (s *service) NotifyUpdated(ctx context.Context, studentIDs []uuid.UUID) {
	if len(studentIDs) == 0 {
		return
	}
	s.metrics.RecordSummariesRecomputed(ctx, "write", len(studentIDs))

	rows, err := NewRepository(s.db, s.dbMetrics).ListWithRegisterNumbers(ctx, studentIDs)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load summaries for events", "error", err)
		return
	}

	for _, row := range rows {
		s.events.Publish(ctx, row.RegisterNumber, events.TypeSummaryUpdated, events.SummaryUpdated{
			StudentID:      row.StudentID.String(),
			RegisterNumber: row.RegisterNumber,
			Total:          row.Total,
			MaxTotal:       row.MaxTotal,
			Percentage:     row.Percentage,
			Grade:          row.Grade,
			Status:         row.Status,
		})
	}
}

func (s *service) Lookup(ctx context.Context, registerNumber string) (*Marksheet, error) {
	registerNumber = student.NormalizeRegisterNumber(registerNumber)
	if registerNumber == "" {
		s.metrics.RecordResultLookup(ctx, outcomeNotFound)
		return nil, ErrResultNotFound
	}

	st, err := student.NewRepository(s.db, s.dbMetrics).GetByRegisterNumber(ctx, registerNumber)
	if err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			s.metrics.RecordResultLookup(ctx, outcomeNotFound)
			return nil, ErrResultNotFound
		}
		return nil, err
	}

	repo := NewRepository(s.db, s.dbMetrics)
	className, err := repo.ClassName(ctx, st.ClassID)
	if err != nil {
		return nil, err
	}

	subjects, err := subject.NewRepository(s.db, s.dbMetrics).ListByClass(ctx, st.ClassID)
	if err != nil {
		return nil, err
	}
	marks, err := mark.NewRepository(s.db, s.dbMetrics).ListByStudent(ctx, st.ID)
	if err != nil {
		return nil, err
	}

	cached, err := repo.GetByStudent(ctx, st.ID)
	if err != nil && !errors.Is(err, ErrSummaryNotFound) {
		return nil, err
	}
	if cached == nil && len(marks) == 0 {
		s.metrics.RecordResultLookup(ctx, outcomeNotFound)
		return nil, ErrNoMarks
	}

	obtained := mark.BySubject(marks)
	sheet := &Marksheet{
		Name:           st.Name,
		RegisterNumber: st.RegisterNumber,
		FatherName:     st.FatherName,
		PhotoURL:       st.PhotoURL,
		ClassName:      className,
		Subjects:       make([]SubjectResult, 0, len(subjects)),
	}
	for _, sub := range subjects {
		e := grading.Entry{Obtained: obtained[sub.ID], Max: sub.MaxMarks}
		grade, status := s.policy.SubjectResult(e)
		sheet.Subjects = append(sheet.Subjects, SubjectResult{
			SubjectID:     sub.ID,
			Subject:       sub.Name,
			MaxMarks:      sub.MaxMarks,
			MarksObtained: e.Obtained,
			Grade:         grade,
			Status:        status,
		})
	}

	if cached != nil {
		sheet.Summary = cached.Summary()
		sheet.UpdatedAt = &cached.UpdatedAt
		s.metrics.RecordResultLookup(ctx, outcomeSummary)
	} else {
		sheet.Summary = s.policy.Summarize(entries(subjects, obtained))
		sheet.Computed = true
		s.metrics.RecordResultLookup(ctx, outcomeComputed)
	}

	return sheet, nil
}

func (s *service) ClassStudents(ctx context.Context, classID uuid.UUID) ([]StudentResult, error) {
	students, err := student.NewRepository(s.db, s.dbMetrics).ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(students))
	for i := range students {
		ids[i] = students[i].ID
	}
	summaries, err := NewRepository(s.db, s.dbMetrics).ListByStudents(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]StudentResult, len(students))
	for i := range students {
		out[i] = StudentResult{Student: &students[i], Summary: summaries[students[i].ID]}
	}
	return out, nil
}

func entries(subjects []subject.Subject, obtained map[uuid.UUID]int) []grading.Entry {
	out := make([]grading.Entry, len(subjects))
	for i, sub := range subjects {
		out[i] = grading.Entry{Obtained: obtained[sub.ID], Max: sub.MaxMarks}
	}
	return out
}
