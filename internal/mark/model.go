// Package mark stores the raw per-subject marks every summary is derived from.
package mark

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Mark struct {
	bun.BaseModel `bun:"table:marks,alias:m"`

	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	StudentID     uuid.UUID `bun:"student_id,type:uuid,notnull" json:"studentId"`
	SubjectID     uuid.UUID `bun:"subject_id,type:uuid,notnull" json:"subjectId"`
	MarksObtained int       `bun:"marks_obtained,notnull" json:"marksObtained"`
}

// BySubject indexes marks by subject id.
func BySubject(marks []Mark) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(marks))
	for _, m := range marks {
		out[m.SubjectID] = m.MarksObtained
	}
	return out
}
