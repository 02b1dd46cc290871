package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type contextKey int

const requestIDKey contextKey = iota

// RequestID assigns a UUID to each request for audit correlation and echoes
// it in the X-Request-Id response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestID returns the request's UUID, or "" outside the middleware.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// AuthMiddleware enforces bearer-token auth when the API was configured
// with a token hash. The configured value is a bcrypt hash, so a leaked
// config does not leak the token itself.
func (a *API) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.authTokenHash) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := bearerToken(r)
		if !ok {
			a.audit.log(AuditAuthFailed, r, slog.String("reason", "missing bearer token"))
			writeError(w, http.StatusUnauthorized, kindValidation, "authentication required")
			return
		}
		if err := bcrypt.CompareHashAndPassword(a.authTokenHash, []byte(token)); err != nil {
			a.audit.log(AuditAuthFailed, r, slog.String("reason", "token mismatch"))
			writeError(w, http.StatusUnauthorized, kindValidation, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}
