package class

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/RIKASH04/Resulyhub/common/metrics"
	svcmetrics "github.com/RIKASH04/Resulyhub/internal/metrics"
	"github.com/RIKASH04/Resulyhub/internal/result"
	"github.com/RIKASH04/Resulyhub/testing/testdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noStudents struct{}

func (noStudents) ClassStudents(context.Context, uuid.UUID) ([]result.StudentResult, error) {
	return []result.StudentResult{}, nil
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"Class 1", "Class 2", "Class 3"}, Names(3))
	assert.Len(t, Names(MaxBulkCreate), MaxBulkCreate)
	assert.Equal(t, "Class 50", Names(MaxBulkCreate)[MaxBulkCreate-1])
	assert.Empty(t, Names(0))
}

func TestCreateClassesRejectsCountOutOfRange(t *testing.T) {
	svc := NewService(nil, metrics.NewMock(), svcmetrics.NewMock(), noStudents{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name  string
		count int
	}{
		{"Zero", 0},
		{"Negative", -3},
		{"AboveMax", MaxBulkCreate + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := svc.CreateClasses(context.Background(), tt.count)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Nil(t, created)
		})
	}
}

func TestClassService(t *testing.T) {
	pg := testdb.SetupSharedPostgres(t)
	testdb.CleanupTables(t, pg.DB, testdb.AllTables...)

	ctx := context.Background()
	svc := NewService(pg.DB, metrics.NewMock(), svcmetrics.NewMock(), noStudents{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("CreateClasses", func(t *testing.T) {
		tests := []struct {
			name    string
			count   int
			created []string
		}{
			{"First", 2, []string{"Class 1", "Class 2"}},
			{"SkipsExisting", 3, []string{"Class 3"}},
			{"NothingNew", 3, []string{}},
			{"UpToMax", 10, []string{"Class 4", "Class 5", "Class 6", "Class 7", "Class 8", "Class 9", "Class 10"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				created, err := svc.CreateClasses(ctx, tt.count)
				require.NoError(t, err)

				names := make([]string, 0, len(created))
				for _, c := range created {
					names = append(names, c.Name)
				}
				assert.ElementsMatch(t, tt.created, names)
			})
		}
	})

	t.Run("ListNaturalOrder", func(t *testing.T) {
		classes, err := svc.ListClasses(ctx)
		require.NoError(t, err)
		require.Len(t, classes, 10)
		assert.Equal(t, "Class 9", classes[8].Name)
		assert.Equal(t, "Class 10", classes[9].Name)
	})

	t.Run("DeleteClass", func(t *testing.T) {
		classes, err := svc.ListClasses(ctx)
		require.NoError(t, err)

		tests := []struct {
			name string
			id   uuid.UUID
			err  error
		}{
			{"Existing", classes[0].ID, nil},
			{"AlreadyDeleted", classes[0].ID, ErrClassNotFound},
			{"Unknown", uuid.New(), ErrClassNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := svc.DeleteClass(ctx, tt.id)
				if tt.err != nil {
					assert.ErrorIs(t, err, tt.err)
					return
				}
				require.NoError(t, err)
			})
		}

		stats, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 9, stats.Classes)
	})

	t.Run("GetUnknownClass", func(t *testing.T) {
		_, err := svc.GetClass(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrClassNotFound)
	})
}
