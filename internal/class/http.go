package class

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
	r.Get("/stats", h.Stats)
	r.Get("/classes", h.ListClasses)
	r.Post("/classes", h.CreateClasses)
	r.Get("/classes/{id}", h.GetClass)
	r.Delete("/classes/{id}", h.DeleteClass)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *Handler) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.service.ListClasses(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, classes)
}

func (h *Handler) CreateClasses(w http.ResponseWriter, r *http.Request) {
	var req CreateClassesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Count must be between 1 and 50")
		return
	}

	h.logger.InfoContext(r.Context(), "creating classes", "count", req.Count)
	created, err := h.service.CreateClasses(r.Context(), req.Count)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetClass(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid class ID")
		return
	}

	detail, err := h.service.GetClass(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, detail)
}

func (h *Handler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid class ID")
		return
	}

	h.logger.InfoContext(r.Context(), "deleting class", "class_id", id)
	if err := h.service.DeleteClass(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrClassNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Class not found")
	case errors.Is(err, ErrInvalidInput):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "class request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
