package subject

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	created *CreateSubjectRequest
	err     error
}

func (f *fakeService) CreateSubject(ctx context.Context, classID uuid.UUID, req CreateSubjectRequest) (*Subject, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &req
	return &Subject{ID: uuid.New(), ClassID: classID, Name: req.Name, MaxMarks: DefaultMaxMarks}, nil
}

func (f *fakeService) ListByClass(ctx context.Context, classID uuid.UUID) ([]Subject, error) {
	return []Subject{}, f.err
}

func (f *fakeService) DeleteSubject(ctx context.Context, id uuid.UUID) error {
	return f.err
}

func newRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSubjectHandler(t *testing.T) {
	classID := uuid.New()

	t.Run("Create", func(t *testing.T) {
		svc := &fakeService{}
		w := do(newRouter(svc), http.MethodPost, "/classes/"+classID.String()+"/subjects", `{"name":"Maths"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, svc.created)
		assert.Equal(t, "Maths", svc.created.Name)
		assert.Contains(t, w.Body.String(), `"maxMarks":100`)
	})

	t.Run("InvalidClassID", func(t *testing.T) {
		w := do(newRouter(&fakeService{}), http.MethodPost, "/classes/abc/subjects", `{"name":"Maths"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MissingName", func(t *testing.T) {
		w := do(newRouter(&fakeService{}), http.MethodPost, "/classes/"+classID.String()+"/subjects", `{"maxMarks":50}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("NegativeMaxMarks", func(t *testing.T) {
		w := do(newRouter(&fakeService{}), http.MethodPost, "/classes/"+classID.String()+"/subjects", `{"name":"Maths","maxMarks":-1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UnknownClass", func(t *testing.T) {
		w := do(newRouter(&fakeService{err: ErrClassNotFound}), http.MethodPost, "/classes/"+classID.String()+"/subjects", `{"name":"Maths"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Class not found")
	})

	t.Run("DeleteNotFound", func(t *testing.T) {
		w := do(newRouter(&fakeService{err: ErrSubjectNotFound}), http.MethodDelete, "/subjects/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		w := do(newRouter(&fakeService{}), http.MethodDelete, "/subjects/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("InternalError", func(t *testing.T) {
		w := do(newRouter(&fakeService{err: fmt.Errorf("boom")}), http.MethodGet, "/classes/"+classID.String()+"/subjects", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestCreateSubjectValidation(t *testing.T) {
	svc := NewService(nil, nil, nil, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.CreateSubject(context.Background(), uuid.New(), CreateSubjectRequest{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	zero := 0
	_, err = svc.CreateSubject(context.Background(), uuid.New(), CreateSubjectRequest{Name: "Maths", MaxMarks: &zero})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
