package subject

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/RIKASH04/Resulyhub/common/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes mounts the admin subject routes; r is already guarded.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/classes/{id}/subjects", h.ListSubjects)
	r.Post("/classes/{id}/subjects", h.CreateSubject)
	r.Delete("/subjects/{id}", h.DeleteSubject)
}

func (h *Handler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid class ID")
		return
	}

	var req CreateSubjectRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "creating subject", "class_id", classID, "name", req.Name)
	subject, err := h.service.CreateSubject(r.Context(), classID, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, subject)
}

func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid class ID")
		return
	}

	subjects, err := h.service.ListByClass(r.Context(), classID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, subjects)
}

func (h *Handler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid subject ID")
		return
	}

	h.logger.InfoContext(r.Context(), "deleting subject", "subject_id", id)
	if err := h.service.DeleteSubject(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrSubjectNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Subject not found")
	case errors.Is(err, ErrClassNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Class not found")
	case errors.Is(err, ErrInvalidInput):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "subject request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
