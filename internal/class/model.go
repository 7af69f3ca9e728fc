package class

import (
	"time"

	"github.com/RIKASH04/Resulyhub/internal/result"
	"github.com/RIKASH04/Resulyhub/internal/subject"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MaxBulkCreate bounds a single "create N classes" action.
const MaxBulkCreate = 50

type Class struct {
	bun.BaseModel `bun:"table:classes,alias:c"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull,unique" json:"name"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// ClassSummary is a class row of the admin dashboard.
type ClassSummary struct {
	Class `bun:",extend"`

	SubjectCount int `bun:"subject_count" json:"subjectCount"`
	StudentCount int `bun:"student_count" json:"studentCount"`
}

type Stats struct {
	Classes  int `bun:"classes" json:"classes"`
	Students int `bun:"students" json:"students"`
	Subjects int `bun:"subjects" json:"subjects"`
}

type ClassDetail struct {
	*Class
	Subjects []subject.Subject     `json:"subjects"`
	Students []result.StudentResult `json:"students"`
}

type CreateClassesRequest struct {
	Count int `json:"count" validate:"required,min=1,max=50"`
}
