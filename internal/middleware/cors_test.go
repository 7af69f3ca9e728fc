package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	called := false
	handler := CORS([]string{"https://results.school.test"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("AllowedOrigin", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/api/results/REG001", nil)
		req.Header.Set("Origin", "https://results.school.test")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.True(t, called)
		assert.Equal(t, "https://results.school.test", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("UnknownOrigin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/results/REG001", nil)
		req.Header.Set("Origin", "https://evil.test")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Preflight", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodOptions, "/api/admin/classes", nil)
		req.Header.Set("Origin", "https://results.school.test")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
