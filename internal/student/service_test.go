package student

import (
	"testing"

	"github.com/RIKASH04/Resulyhub/internal/subject"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRegisterNumber(t *testing.T) {
	assert.Equal(t, "REG001", NormalizeRegisterNumber("  reg001 "))
	assert.Equal(t, "", NormalizeRegisterNumber("   "))
}

func TestMarksFor(t *testing.T) {
	maths := subject.Subject{ID: uuid.New(), Name: "Maths", MaxMarks: 50}
	science := subject.Subject{ID: uuid.New(), Name: "Science", MaxMarks: 100}
	subjects := []subject.Subject{maths, science}

	t.Run("MissingInputsDefaultToZero", func(t *testing.T) {
		marks, err := marksFor(subjects, []MarkInput{{SubjectID: maths.ID, MarksObtained: 40}}, nil)
		require.NoError(t, err)
		require.Len(t, marks, 2)
		assert.Equal(t, 40, marks[0].MarksObtained)
		assert.Equal(t, 0, marks[1].MarksObtained)
	})

	t.Run("MissingInputsKeepCurrent", func(t *testing.T) {
		current := map[uuid.UUID]int{maths.ID: 12, science.ID: 77}
		marks, err := marksFor(subjects, []MarkInput{{SubjectID: maths.ID, MarksObtained: 40}}, current)
		require.NoError(t, err)
		assert.Equal(t, 40, marks[0].MarksObtained)
		assert.Equal(t, 77, marks[1].MarksObtained)
	})

	t.Run("UpperBoundIsSubjectMax", func(t *testing.T) {
		_, err := marksFor(subjects, []MarkInput{{SubjectID: science.ID, MarksObtained: 100}}, nil)
		assert.NoError(t, err)

		_, err = marksFor(subjects, []MarkInput{{SubjectID: maths.ID, MarksObtained: 51}}, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("NegativeRejected", func(t *testing.T) {
		_, err := marksFor(subjects, []MarkInput{{SubjectID: maths.ID, MarksObtained: -1}}, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("ForeignSubjectRejected", func(t *testing.T) {
		_, err := marksFor(subjects, []MarkInput{{SubjectID: uuid.New(), MarksObtained: 1}}, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
