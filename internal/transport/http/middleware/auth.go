package middleware

import (
	"context"
	"net/http"
	"strings"

	"unihr/internal/auth"
)

// Auth attaches the authenticated user to the context when a valid bearer
// token is present. Missing or invalid tokens leave the request anonymous;
// permission checks reject it later.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, auth.UserContext{
				UserID:      claims.UserID,
				AccountRole: claims.AccountRole,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
