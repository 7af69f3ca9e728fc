package student

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

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/classes/{id}/students", h.CreateStudent)
	r.Route("/students/{id}", func(r chi.Router) {
		r.Get("/", h.GetStudent)
		r.Put("/", h.UpdateStudent)
		r.Delete("/", h.DeleteStudent)
		r.Get("/marks", h.GetMarks)
		r.Put("/marks", h.UpdateMarks)
	})
}

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	classID, ok := h.idParam(w, r, "Invalid class ID")
	if !ok {
		return
	}

	var req CreateStudentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "creating student", "class_id", classID, "register_number", req.RegisterNumber)
	student, err := h.service.CreateStudent(r.Context(), classID, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, student)
}

func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "Invalid student ID")
	if !ok {
		return
	}

	student, err := h.service.GetStudent(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, student)
}

func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "Invalid student ID")
	if !ok {
		return
	}

	var req UpdateStudentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "updating student", "student_id", id)
	student, err := h.service.UpdateStudent(r.Context(), id, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, student)
}

func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "Invalid student ID")
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "deleting student", "student_id", id)
	if err := h.service.DeleteStudent(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetMarks(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "Invalid student ID")
	if !ok {
		return
	}

	marks, err := h.service.GetMarks(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, marks)
}

func (h *Handler) UpdateMarks(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "Invalid student ID")
	if !ok {
		return
	}

	var req UpdateMarksRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "updating marks", "student_id", id, "entries", len(req.Marks))
	summary, err := h.service.UpdateMarks(r.Context(), id, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, msg)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrStudentNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Student not found")
	case errors.Is(err, ErrClassNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Class not found")
	case errors.Is(err, ErrDuplicateRegisterNumber):
		httputil.RespondWithError(w, http.StatusConflict, "Register number already exists")
	case errors.Is(err, ErrNoSubjects):
		httputil.RespondWithError(w, http.StatusBadRequest, "Add at least one subject first")
	case errors.Is(err, ErrInvalidInput):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "student request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
