// Package api exposes the reading tracker over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/readtrackapp/readtrack-server/internal/auth"
	"github.com/readtrackapp/readtrack-server/internal/ratelimit"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

const (
	apiTitle   = "ReadTrack API"
	apiVersion = "1.0.0"
	apiPrefix  = "/api/v1"
)

// bearerSecurity marks an operation as requiring an access token.
var bearerSecurity = []map[string][]string{{"bearer": {}}}

// Options holds the HTTP-facing settings of the server.
type Options struct {
	CORSAllowedOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services *Services
	store    store.Store
	tokens   *auth.TokenService
	limiter  *ratelimit.KeyedRateLimiter
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured. A nil
// limiter disables rate limiting.
func NewServer(services *Services, st store.Store, tokens *auth.TokenService, limiter *ratelimit.KeyedRateLimiter, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		services: services,
		store:    st,
		tokens:   tokens,
		limiter:  limiter,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig(apiTitle, apiVersion)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerSessionRoutes()
	s.registerBookRoutes()
	s.registerNoteRoutes()
	s.registerMeRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures the middleware stack. Authentication runs
// before rate limiting so callers are limited per user, not per address.
func (s *Server) setupMiddleware(opts Options) {
	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Retry-After", "X-Request-ID"},
		MaxAge:         300,
	}))
	s.router.Use(s.authenticate)
	s.router.Use(s.rateLimit)
}
