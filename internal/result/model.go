package result

import (
	"time"

	"github.com/RIKASH04/Resulyhub/internal/grading"
	"github.com/RIKASH04/Resulyhub/internal/student"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ResultSummary is the cached grading.Summary of one student.
type ResultSummary struct {
	bun.BaseModel `bun:"table:result_summaries,alias:rs"`

	StudentID  uuid.UUID `bun:"student_id,pk,type:uuid" json:"studentId"`
	Total      int       `bun:"total,notnull" json:"total"`
	MaxTotal   int       `bun:"max_total,notnull" json:"maxTotal"`
	Percentage float64   `bun:"percentage,notnull" json:"percentage"`
	Grade      string    `bun:"grade,notnull" json:"grade"`
	Status     string    `bun:"status,notnull" json:"status"`
	Policy     string    `bun:"policy,notnull" json:"policy"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

func newResultSummary(studentID uuid.UUID, s grading.Summary, now time.Time) *ResultSummary {
	return &ResultSummary{
		StudentID:  studentID,
		Total:      s.Total,
		MaxTotal:   s.MaxTotal,
		Percentage: s.Percentage,
		Grade:      s.Grade,
		Status:     s.Status,
		Policy:     s.Policy,
		UpdatedAt:  now,
	}
}

func (rs *ResultSummary) Summary() grading.Summary {
	return grading.Summary{
		Total:      rs.Total,
		MaxTotal:   rs.MaxTotal,
		Percentage: rs.Percentage,
		Grade:      rs.Grade,
		Status:     rs.Status,
		Policy:     rs.Policy,
	}
}

// RegisteredSummary joins a summary with the student's register number for
// event payloads.
type RegisteredSummary struct {
	ResultSummary `bun:",extend"`

	RegisterNumber string `bun:"register_number"`
}

type SubjectResult struct {
	SubjectID     uuid.UUID `json:"subjectId"`
	Subject       string    `json:"subject"`
	MaxMarks      int       `json:"maxMarks"`
	MarksObtained int       `json:"marksObtained"`
	Grade         string    `json:"grade"`
	Status        string    `json:"status"`
}

// Marksheet is the public view of one student's result. Computed is true when
// no cached summary existed and the summary was derived from the marks.
type Marksheet struct {
	Name           string          `json:"name"`
	RegisterNumber string          `json:"registerNumber"`
	FatherName     *string         `json:"fatherName"`
	PhotoURL       *string         `json:"photoUrl"`
	ClassName      string          `json:"className"`
	Subjects       []SubjectResult `json:"subjects"`
	Summary        grading.Summary `json:"summary"`
	Computed       bool            `json:"computed"`
	UpdatedAt      *time.Time      `json:"updatedAt,omitempty"`
}

// StudentResult pairs a student with its cached summary, nil when absent.
type StudentResult struct {
	*student.Student
	Summary *ResultSummary `json:"summary"`
}

type RecomputeRequest struct {
	StudentID *uuid.UUID `json:"studentId,omitempty"`
	ClassID   *uuid.UUID `json:"classId,omitempty"`
}

type RecomputeResponse struct {
	Recomputed int `json:"recomputed"`
}
