package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AenganZ/pseudo/internal/audit"
	"github.com/AenganZ/pseudo/internal/engine"
	"github.com/AenganZ/pseudo/internal/otel"
)

const defaultTimeout = 60 * time.Second

// Server holds all dependencies for the HTTP API.
type Server struct {
	router      *chi.Mux
	engine      *engine.Pseudonymizer
	auditStore  *audit.Store
	rateLimiter *RateLimiter
	apiKey      string
	corsOrigins []string
	auditKeep   int
	startTime   time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithAPIKey enables API key auth. An empty key leaves the API open.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// WithCORSOrigins sets allowed CORS origins (e.g. ["*"] for any).
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithRateLimit enables per-caller rate limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) { s.rateLimiter = NewRateLimiter(rps, burst) }
}

// WithAuditKeep bounds how many records the log listing returns by default.
func WithAuditKeep(keep int) Option {
	return func(s *Server) { s.auditKeep = keep }
}

// NewServer builds a Server with the required dependencies and optional
// Option(s). auditStore may be nil to disable the log endpoints.
func NewServer(eng *engine.Pseudonymizer, auditStore *audit.Store, opts ...Option) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		engine:      eng,
		auditStore:  auditStore,
		corsOrigins: []string{"*"},
		auditKeep:   audit.DefaultKeep,
		startTime:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the configured http.Handler with all middleware and routes.
func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(otel.MiddlewareWithStatus())
	r.Use(CORSMiddleware(s.corsOrigins))

	// Unauthenticated
	r.Get("/health", s.handleHealth)
	r.Get("/v1/health", s.handleHealth)

	// Authenticated API group
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.apiKey))
		r.Use(RateLimitMiddleware(s.rateLimiter))
		r.Use(middleware.Timeout(defaultTimeout))

		r.Post("/v1/pseudonymize", s.handlePseudonymize)
		r.Post("/v1/restore", s.handleRestore)

		if s.auditStore != nil {
			r.Get("/v1/logs", s.handleLogsList)
			r.Get("/v1/logs/{id}", s.handleLogsGet)
		}
	})

	return r
}
