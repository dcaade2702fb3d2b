package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/julianstephens/habitcoach/internal/logger"
)

type contextKey string

const userIDKey contextKey = "user_id"

// userID returns the authenticated user's id from the request context.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// requireAuth validates the bearer token and stashes the user id in the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		id, err := s.auth.ValidateAccessToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	}
}

// logRequests logs method, path, and latency for every request.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("Request handled", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
