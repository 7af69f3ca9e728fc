package app

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/RIKASH04/Resulyhub/common/metrics"
	"github.com/RIKASH04/Resulyhub/internal/auth"
	"github.com/RIKASH04/Resulyhub/internal/class"
	"github.com/RIKASH04/Resulyhub/internal/config"
	"github.com/RIKASH04/Resulyhub/internal/events"
	"github.com/RIKASH04/Resulyhub/internal/grading"
	"github.com/RIKASH04/Resulyhub/internal/health"
	svcmetrics "github.com/RIKASH04/Resulyhub/internal/metrics"
	"github.com/RIKASH04/Resulyhub/internal/middleware"
	"github.com/RIKASH04/Resulyhub/internal/result"
	"github.com/RIKASH04/Resulyhub/internal/student"
	"github.com/RIKASH04/Resulyhub/internal/subject"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
)

// Services bundles the domain services sharing one database handle.
type Services struct {
	Results  result.Service
	Classes  class.Service
	Subjects subject.Service
	Students student.Service
	Auth     *auth.Service
}

type Dependencies struct {
	Config    *config.Config
	DB        *bun.DB
	Policy    grading.Policy
	Metrics   *metrics.Metrics
	Counters  *svcmetrics.Metrics
	Publisher *events.Publisher
	Verifier  auth.IDTokenVerifier
	Logger    *slog.Logger
}

func NewServices(d Dependencies) *Services {
	results := result.NewService(d.DB, d.Policy, d.Metrics, d.Counters, d.Publisher, d.Logger)

	verifier := d.Verifier
	if verifier == nil {
		verifier = auth.NewGoogleVerifier(d.Config.Auth.GoogleClientID)
	}

	secret := d.Config.Auth.JWTSecret
	if secret == "" {
		// Only reachable in local/test; Validate requires a secret elsewhere.
		secret = randomSecret()
		d.Logger.Warn("auth.jwt_secret not set, using an ephemeral secret")
	}

	return &Services{
		Results:  results,
		Classes:  class.NewService(d.DB, d.Metrics, d.Counters, results, d.Publisher, d.Logger),
		Subjects: subject.NewService(d.DB, d.Metrics, results, d.Policy.Ceiling(), d.Logger),
		Students: student.NewService(d.DB, d.Metrics, d.Counters, results, d.Publisher, d.Logger),
		Auth: auth.NewService(
			d.DB,
			d.Metrics,
			auth.NewTokenIssuer(secret, d.Config.Auth.AccessTokenTTL),
			verifier,
			auth.Options{
				AdminEmail:        d.Config.Auth.AdminEmail,
				AdminPasswordHash: d.Config.Auth.AdminPasswordHash,
				RefreshTokenTTL:   d.Config.Auth.RefreshTokenTTL,
			},
			d.Logger,
		),
	}
}

// NewRouter mounts the public API under /api, the admin API under /api/admin
// and the auth endpoints under /auth.
func NewRouter(cfg *config.Config, database *bun.DB, services *Services, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	health.NewHandler(database, m, logger).RegisterRoutes(router)
	auth.NewHandler(services.Auth, !cfg.IsLocal(), logger).RegisterRoutes(router)

	resultHandler := result.NewHandler(services.Results, logger)

	router.Route("/api", func(r chi.Router) {
		resultHandler.RegisterPublicRoutes(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.AdminMiddleware(services.Auth, logger))
			class.NewHandler(services.Classes, logger).RegisterRoutes(r)
			subject.NewHandler(services.Subjects, logger).RegisterRoutes(r)
			student.NewHandler(services.Students, logger).RegisterRoutes(r)
			resultHandler.RegisterAdminRoutes(r)
		})
	})

	return router
}

func randomSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
