package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"team-chat/auth"
	"team-chat/errors"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserID returns the authenticated user's ID stored by requireAuth, or the
// empty string when the request was not authenticated.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// requireAuth validates the Authorization bearer token and injects the
// authenticated user ID into the request context.
func requireAuth(issuer auth.TokenIssuer, next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, errors.ErrMissingToken)
			return
		}
		claims, err := issuer.Validate(token)
		if err != nil {
			log.Debug("Token rejected", "path", r.URL.Path, "err", err)
			writeError(w, errors.ErrInvalidToken)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// withCORS answers preflight requests and stamps the configured origin on
// every response. An empty origin disables CORS headers entirely.
func withCORS(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
