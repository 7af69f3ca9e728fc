package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/RIKASH04/Resulyhub/common/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service       *Service
	validate      *validator.Validate
	logger        *slog.Logger
	secureCookies bool
}

func NewHandler(service *Service, secureCookies bool, logger *slog.Logger) *Handler {
	return &Handler{
		service:       service,
		validate:      validator.New(),
		logger:        logger,
		secureCookies: secureCookies,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/google", h.GoogleLogin)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
		r.With(AdminMiddleware(h.service, h.logger)).Get("/me", h.Me)
	})
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	resp, err := h.service.GoogleLogin(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "admin signed in", "email", resp.Admin.Email, "method", "google")
	h.respondWithTokens(w, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	resp, err := h.service.PasswordLogin(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "admin signed in", "email", resp.Admin.Email, "method", "password")
	h.respondWithTokens(w, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondWithTokens(w, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
			return
		}
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	ClearAuthCookie(w, h.secureCookies)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	email, _ := GetEmail(r.Context())
	httputil.RespondWithJSON(w, http.StatusOK, Admin{Email: email, Name: GetName(r.Context())})
}

func (h *Handler) respondWithTokens(w http.ResponseWriter, resp *AuthResponse) {
	SetAuthCookie(w, resp.AccessToken, int(h.service.AccessTokenTTL().Seconds()), h.secureCookies)
	httputil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidIDToken):
		h.logger.WarnContext(r.Context(), "google token rejected", "error", err)
		httputil.RespondWithError(w, http.StatusUnauthorized, "Invalid Google token")
	case errors.Is(err, ErrInvalidCredentials):
		httputil.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, ErrInvalidRefreshToken):
		httputil.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
	case errors.Is(err, ErrNotAdmin):
		httputil.RespondWithError(w, http.StatusForbidden, "Access denied. Admin only.")
	case errors.Is(err, ErrPasswordLoginDisabled):
		httputil.RespondWithError(w, http.StatusNotFound, "Password login is disabled")
	default:
		h.logger.ErrorContext(r.Context(), "auth request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
