package api

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
	"github.com/readtrackapp/readtrack-server/internal/http/response"
)

var errUnauthenticated = domainerrors.Unauthorizedf("Authentication required")

// requestLogger logs one line per request. Server errors log at error
// level, everything else at info.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		s.logger.Log(r.Context(), level, "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// rateLimit applies the per-client token bucket. Authenticated callers are
// keyed by user, anonymous ones by address. Health checks are exempt.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		key := "ip:" + clientIP(r)
		if userID := userIDFrom(r.Context()); userID != "" {
			key = "user:" + userID
		}

		if !s.limiter.Allow(key) {
			s.logger.Warn("Rate limit exceeded", "key", key, "path", r.URL.Path)
			response.TooManyRequests(w, s.limiter.RetryAfter(key), s.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the request address without its port. RealIP has
// already applied X-Forwarded-For and X-Real-IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
