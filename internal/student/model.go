package student

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Student struct {
	bun.BaseModel `bun:"table:students,alias:st"`

	ID             uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	ClassID        uuid.UUID `bun:"class_id,type:uuid,notnull" json:"classId"`
	Name           string    `bun:"name,notnull" json:"name"`
	RegisterNumber string    `bun:"register_number,notnull,unique" json:"registerNumber"`
	FatherName     *string   `bun:"father_name" json:"fatherName"`
	PhotoURL       *string   `bun:"photo_url" json:"photoUrl"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// NormalizeRegisterNumber is the canonical stored form: trimmed, upper case.
func NormalizeRegisterNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

type MarkInput struct {
	SubjectID     uuid.UUID `json:"subjectId" validate:"required"`
	MarksObtained int       `json:"marksObtained" validate:"gte=0"`
}

type CreateStudentRequest struct {
	Name           string      `json:"name" validate:"required,max=200"`
	RegisterNumber string      `json:"registerNumber" validate:"required,max=50"`
	FatherName     *string     `json:"fatherName,omitempty" validate:"omitempty,max=200"`
	PhotoURL       *string     `json:"photoUrl,omitempty" validate:"omitempty,url"`
	Marks          []MarkInput `json:"marks" validate:"dive"`
}

type UpdateStudentRequest struct {
	Name       string  `json:"name" validate:"required,max=200"`
	FatherName *string `json:"fatherName,omitempty" validate:"omitempty,max=200"`
	PhotoURL   *string `json:"photoUrl,omitempty" validate:"omitempty,url"`
}

type UpdateMarksRequest struct {
	Marks []MarkInput `json:"marks" validate:"required,dive"`
}

// MarkEntry is one row of the marks editor: every subject of the class, with
// 0 where no mark was ever written.
type MarkEntry struct {
	SubjectID     uuid.UUID `json:"subjectId"`
	SubjectName   string    `json:"subjectName"`
	MaxMarks      int       `json:"maxMarks"`
	MarksObtained int       `json:"marksObtained"`
}

type StudentMarks struct {
	Student *Student    `json:"student"`
	Marks   []MarkEntry `json:"marks"`
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
