package api

import (
	"context"
	"net/http"
	"strings"

	"parlor/internal/models"
	"parlor/internal/service"
)

type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "token"
)

type AuthMiddleware struct {
	users *service.UsersService
}

func NewAuthMiddleware(users *service.UsersService) *AuthMiddleware {
	return &AuthMiddleware{users: users}
}

// RequireAuth resolves the bearer token (Authorization header or
// authToken cookie) to a user once per request. Resolving refreshes the
// token's rolling window.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			unauthorized(w, "Authentication required")
			return
		}

		user, err := m.users.Authenticate(r.Context(), token)
		if err != nil {
			serviceError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	if cookie, err := r.Cookie("authToken"); err == nil {
		return cookie.Value
	}
	return ""
}

// RequestUser returns the authenticated user placed by RequireAuth.
func RequestUser(r *http.Request) *models.User {
	if u, ok := r.Context().Value(userKey).(*models.User); ok {
		return u
	}
	return nil
}

// RequestToken returns the raw token the request authenticated with.
func RequestToken(r *http.Request) string {
	if t, ok := r.Context().Value(tokenKey).(string); ok {
		return t
	}
	return ""
}
