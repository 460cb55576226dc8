package api

import (
	"chat-relay/auth"
	"chat-relay/errors"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserID extracts the authenticated identity injected by RequireAuth.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// RequireAuth validates the bearer token and injects the user identity into
// the request context. The same credential format is accepted here and at
// the live-connection handshake.
func RequireAuth(authenticator auth.IAuthenticator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "authorization token is missing")
			return
		}

		userID, err := authenticator.Authenticate(tokenStr)
		if err != nil {
			writeError(w, errors.MapToHTTPStatus(err), err.Error())
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

// RequestLogging logs one line per request.
func RequestLogging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// CORS applies the origin allow-list plus the security headers the rest of
// the product expects. Disallowed origins get no CORS grants, which the
// browser enforces.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && lo.Contains(allowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
