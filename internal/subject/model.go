package subject

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const DefaultMaxMarks = 100

type Subject struct {
	bun.BaseModel `bun:"table:subjects,alias:sub"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	ClassID   uuid.UUID `bun:"class_id,type:uuid,notnull" json:"classId"`
	Name      string    `bun:"name,notnull" json:"name"`
	MaxMarks  int       `bun:"max_marks,notnull" json:"maxMarks"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

type CreateSubjectRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	MaxMarks *int   `json:"maxMarks,omitempty" validate:"omitempty,gt=0,lte=1000"`
}
