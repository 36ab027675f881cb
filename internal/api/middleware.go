package api

import (
	"context"
	"log"
	"net/http"
	"strings"

	"magazyn-plikow/internal/auth"
	"magazyn-plikow/internal/models"
)

type contextKey string

const userContextKey = contextKey("user")

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" {
		return ""
	}
	return headerParts[1]
}

// AuthMiddleware resolves the bearer session token against the
// sessions table and stores the user in the request context.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := s.store.GetUserBySessionToken(r.Context(), token)
		if err != nil {
			log.Printf("ERROR: session lookup failed: %v", err)
			respondError(w, http.StatusInternalServerError, "Session verification failed")
			return
		}
		if user == nil {
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminMiddleware is the stricter variant of AuthMiddleware: the
// authenticated user must be the reserved admin.
func (s *Server) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil || !strings.EqualFold(user.Username, auth.ReservedAdminUsername) {
			respondError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin gates a single handler inside an otherwise user-scoped
// endpoint.
func (s *Server) requireAdmin(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.AdminMiddleware(handler).ServeHTTP(w, r)
	}
}

func GetUserFromContext(ctx context.Context) *models.User {
	if user, ok := ctx.Value(userContextKey).(*models.User); ok {
		return user
	}
	return nil
}
