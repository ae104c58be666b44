/**
 * @description
 * This file contains the bearer-token middleware protecting the product and
 * upload routes. It verifies the session token with the issuer and injects
 * the account id into the request context for handlers to consume.
 */

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/productr/merchant-service/internal/token"
)

type contextKey string

const userIDContextKey contextKey = "userID"

// BearerAuthMiddleware validates the Authorization header against the session
// issuer and stores the account id in the request context.
func BearerAuthMiddleware(issuer *token.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization required")
				return
			}

			tokenString, ok := bearerToken(authHeader)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			userID, err := issuer.Verify(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the authenticated account id from the request context.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok
}

func bearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}

	t := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if t == "" {
		return "", false
	}

	return t, true
}
