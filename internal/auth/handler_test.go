package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RIKASH04/Resulyhub/common/metrics"
	"github.com/RIKASH04/Resulyhub/internal/auth"
	"github.com/RIKASH04/Resulyhub/testing/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const adminEmail = "principal@school.test"

// fakeVerifier treats the ID token itself as the signed-in email.
type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, idToken string) (*auth.Identity, error) {
	if idToken == "bad" {
		return nil, errors.Join(auth.ErrInvalidIDToken, errors.New("signature mismatch"))
	}
	return &auth.Identity{Email: idToken, Name: "Test User", Sub: "sub-" + idToken}, nil
}

func postJSON(router http.Handler, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func tokenCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "token" {
			return cookie
		}
	}
	t.Fatal("token cookie should be set")
	return nil
}

func TestAuthHandler_Shared(t *testing.T) {
	pgContainer := testdb.SetupSharedPostgres(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := auth.NewService(
		pgContainer.DB,
		metrics.NewMock(),
		auth.NewTokenIssuer("test-secret-key-for-testing", 15*time.Minute),
		fakeVerifier{},
		auth.Options{AdminEmail: adminEmail, AdminPasswordHash: string(hash), RefreshTokenTTL: time.Hour},
		logger,
	)
	router := chi.NewRouter()
	auth.NewHandler(service, false, logger).RegisterRoutes(router)

	t.Run("GoogleLogin_Admin", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "refresh_tokens")

		w := postJSON(router, "/auth/google", map[string]string{"idToken": "Principal@School.test"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var response auth.AuthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.NotEmpty(t, response.AccessToken)
		assert.NotEmpty(t, response.RefreshToken)
		assert.Equal(t, adminEmail, response.Admin.Email)

		cookie := tokenCookie(t, w)
		assert.Equal(t, response.AccessToken, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, 900, cookie.MaxAge)

		count, err := pgContainer.DB.NewSelect().Model((*auth.RefreshToken)(nil)).Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("GoogleLogin_NotAdmin", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "refresh_tokens")

		w := postJSON(router, "/auth/google", map[string]string{"idToken": "teacher@school.test"})

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Admin only")
	})

	t.Run("GoogleLogin_InvalidToken", func(t *testing.T) {
		w := postJSON(router, "/auth/google", map[string]string{"idToken": "bad"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("GoogleLogin_MissingToken", func(t *testing.T) {
		w := postJSON(router, "/auth/google", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("PasswordLogin", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "refresh_tokens")

		w := postJSON(router, "/auth/login", map[string]string{"email": adminEmail, "password": "s3cret-pass"})
		assert.Equal(t, http.StatusOK, w.Code)

		w = postJSON(router, "/auth/login", map[string]string{"email": adminEmail, "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = postJSON(router, "/auth/login", map[string]string{"email": "someone@school.test", "password": "s3cret-pass"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Refresh_RotatesToken", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "refresh_tokens")

		w := postJSON(router, "/auth/google", map[string]string{"idToken": adminEmail})
		require.Equal(t, http.StatusOK, w.Code)
		var first auth.AuthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&first))

		w = postJSON(router, "/auth/refresh", map[string]string{"refreshToken": first.RefreshToken})
		require.Equal(t, http.StatusOK, w.Code)
		var second auth.AuthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&second))
		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

		// The old token was consumed.
		w = postJSON(router, "/auth/refresh", map[string]string{"refreshToken": first.RefreshToken})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Logout", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "refresh_tokens")

		w := postJSON(router, "/auth/google", map[string]string{"idToken": adminEmail})
		var response auth.AuthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

		w = postJSON(router, "/auth/logout", map[string]string{"refreshToken": response.RefreshToken})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, -1, tokenCookie(t, w).MaxAge)

		w = postJSON(router, "/auth/refresh", map[string]string{"refreshToken": response.RefreshToken})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Me", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "refresh_tokens")

		w := postJSON(router, "/auth/google", map[string]string{"idToken": adminEmail})
		cookie := tokenCookie(t, w)

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(cookie)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var admin auth.Admin
		require.NoError(t, json.NewDecoder(w.Body).Decode(&admin))
		assert.Equal(t, adminEmail, admin.Email)

		req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("PurgeExpired", func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "refresh_tokens")
		ctx := context.Background()

		repo := auth.NewRepository(pgContainer.DB, metrics.NewMock())
		require.NoError(t, repo.CreateRefreshToken(ctx, adminEmail, "expired", time.Now().Add(-time.Hour)))
		require.NoError(t, repo.CreateRefreshToken(ctx, adminEmail, "live", time.Now().Add(time.Hour)))

		n, err := service.PurgeExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = repo.GetRefreshToken(ctx, "live")
		assert.NoError(t, err)
	})
}

func TestAdminMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer := auth.NewTokenIssuer("middleware-secret", time.Minute)
	service := auth.NewService(nil, metrics.NewMock(), issuer, fakeVerifier{}, auth.Options{AdminEmail: adminEmail}, logger)

	protected := auth.AdminMiddleware(service, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, _ := auth.GetEmail(r.Context())
		w.Write([]byte(email))
	}))

	serve := func(setup func(r *http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
		setup(req)
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		return w
	}

	adminToken, _, err := issuer.GenerateAccessToken(auth.Admin{Email: adminEmail})
	require.NoError(t, err)
	otherToken, _, err := issuer.GenerateAccessToken(auth.Admin{Email: "teacher@school.test"})
	require.NoError(t, err)

	t.Run("Cookie", func(t *testing.T) {
		w := serve(func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: adminToken}) })
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, adminEmail, w.Body.String())
	})

	t.Run("Bearer", func(t *testing.T) {
		w := serve(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+adminToken) })
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Missing", func(t *testing.T) {
		w := serve(func(*http.Request) {})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("NotAdmin", func(t *testing.T) {
		w := serve(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+otherToken) })
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Tampered", func(t *testing.T) {
		w := serve(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+adminToken+"x") })
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
