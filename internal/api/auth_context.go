package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/readtrackapp/readtrack-server/internal/http/response"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	userIDKey  ctxKey = "user_id"
	tokenIDKey ctxKey = "token_id"
)

// requireUser returns the authenticated user ID from context, or a 401
// envelope when the request carried no valid token.
func requireUser(ctx context.Context) (string, error) {
	userID := userIDFrom(ctx)
	if userID == "" {
		return "", &APIError{response.Body(errUnauthenticated)}
	}
	return userID, nil
}

func userIDFrom(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// authenticate validates a Bearer token when one is present and stores the
// caller in the request context. A malformed or expired token is rejected
// outright; a missing one is left for the handler to refuse.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.Unauthorized(w, "Invalid authorization header format", s.logger)
			return
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			s.logger.Debug("Rejected access token", "error", err)
			response.Unauthorized(w, "Invalid or expired token", s.logger)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, tokenIDKey, claims.TokenID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
