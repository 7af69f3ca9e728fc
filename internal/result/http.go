package result

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/RIKASH04/Resulyhub/common/httputil"
	"github.com/RIKASH04/Resulyhub/internal/student"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterPublicRoutes mounts the unauthenticated marksheet lookup.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/results/{registerNumber}", h.Lookup)
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/results/recompute", h.Recompute)
	r.Get("/classes/{id}/export", h.ExportClass)
}

func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	registerNumber := chi.URLParam(r, "registerNumber")

	sheet, err := h.service.Lookup(r.Context(), registerNumber)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, sheet)
}

// Recompute rebuilds one student, one class, or everything when the body
// names neither.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	var req RecomputeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	ctx := r.Context()
	var (
		n   int
		err error
	)
	switch {
	case req.StudentID != nil:
		_, err = h.service.Recompute(ctx, *req.StudentID)
		n = 1
	case req.ClassID != nil:
		n, err = h.service.RecomputeClass(ctx, *req.ClassID)
	default:
		n, err = h.service.RecomputeAll(ctx)
	}
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "summaries recomputed", "count", n)
	httputil.RespondWithJSON(w, http.StatusOK, RecomputeResponse{Recomputed: n})
}

func (h *Handler) ExportClass(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid class ID")
		return
	}

	// Buffered so a failure halfway still yields a JSON error.
	var buf bytes.Buffer
	if err := h.service.ExportClass(r.Context(), classID, &buf); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="results-%s.xlsx"`, classID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrResultNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "No result found for this Register Number")
	case errors.Is(err, ErrNoMarks):
		httputil.RespondWithError(w, http.StatusNotFound, "No marks found for this student")
	case errors.Is(err, ErrClassNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Class not found")
	case errors.Is(err, student.ErrStudentNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Student not found")
	default:
		h.logger.ErrorContext(r.Context(), "result request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
