package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/RIKASH04/Resulyhub/common/httputil"
)

const cookieName = "token"

type contextKey string

const (
	EmailKey contextKey = "email"
	NameKey  contextKey = "name"
)

// AdminMiddleware accepts the access token from the auth cookie or an
// Authorization bearer header and requires it to belong to the admin.
func AdminMiddleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				httputil.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := service.ValidateAccessToken(token)
			if err != nil {
				if errors.Is(err, ErrNotAdmin) {
					logger.WarnContext(r.Context(), "non-admin token rejected", "path", r.URL.Path)
					httputil.RespondWithError(w, http.StatusForbidden, "Forbidden")
					return
				}
				logger.WarnContext(r.Context(), "invalid token", "path", r.URL.Path, "error", err)
				httputil.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), EmailKey, claims.Email)
			ctx = context.WithValue(ctx, NameKey, claims.Name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func GetEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}

func GetName(ctx context.Context) string {
	name, _ := ctx.Value(NameKey).(string)
	return name
}

// SetAuthCookie stores the access token in an HttpOnly cookie. SameSite is
// relaxed to Lax when the cookie is not Secure so local tooling can send it.
func SetAuthCookie(w http.ResponseWriter, token string, maxAge int, secure bool) {
	sameSite := http.SameSiteStrictMode
	if !secure {
		sameSite = http.SameSiteLaxMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Path:     "/",
		MaxAge:   maxAge,
	})
}

func ClearAuthCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
