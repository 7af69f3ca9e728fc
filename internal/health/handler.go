package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/RIKASH04/Resulyhub/common/httputil"
	"github.com/RIKASH04/Resulyhub/common/metrics"

	"github.com/go-chi/chi/v5"
)

const checkTimeout = 2 * time.Second

// Pinger is satisfied by *bun.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	db      Pinger
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewHandler(db Pinger, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		db:      db,
		metrics: m,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health is the liveness probe; it never touches dependencies.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready reports 503 until the database answers a ping.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	h.metrics.Dependencies.RecordCheck(ctx, "postgres", time.Since(start), err)

	if err != nil {
		h.logger.WarnContext(r.Context(), "readiness check failed", "dependency", "postgres", "error", err)
		httputil.RespondWithJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Checks: map[string]string{"postgres": "down"},
		})
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{
		Status: "ready",
		Checks: map[string]string{"postgres": "up"},
	})
}
