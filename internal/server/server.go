// Package server provides the HTTP REST API: auth passthrough, persona CRUD
// and CV parsing.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/monu322/ai-job-applier-app/internal/parsing"
	"github.com/monu322/ai-job-applier-app/internal/persona"
	"github.com/monu322/ai-job-applier-app/internal/server/middleware"
	"github.com/monu322/ai-job-applier-app/internal/server/ratelimit"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "astra-apply-api"

// multipartOverhead is allowed on top of the document size limit for the
// multipart envelope.
const multipartOverhead = 1 << 20

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Addr           string
	AllowedOrigins []string
	MaxUploadBytes int // largest accepted CV file
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Personas *persona.Service
	Identity IdentityProvider
	JWT      *JWTService
	Limiter  *ratelimit.Limiter
	Database Pinger // optional, checked by /health
	Logger   zerolog.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	personas       *persona.Service
	authHandler    *AuthHandler
	rateLimiter    *ratelimit.Limiter
	database       Pinger
	logger         zerolog.Logger
	maxUploadBytes int64
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	logger := deps.Logger.With().Str("component", "server").Logger()
	s := &Server{
		personas:       deps.Personas,
		authHandler:    NewAuthHandler(deps.Identity, logger),
		rateLimiter:    deps.Limiter,
		database:       deps.Database,
		logger:         logger,
		maxUploadBytes: int64(cfg.MaxUploadBytes) + multipartOverhead,
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}

	requireAuth := middleware.AuthMiddleware(deps.JWT.AsTokenValidator())
	protected := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Auth endpoints
	mux.HandleFunc("POST /api/auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", s.authHandler.Login)
	mux.Handle("POST /api/auth/logout", protected(s.authHandler.Logout))
	mux.Handle("GET /api/auth/me", protected(s.authHandler.Me))

	// Persona endpoints
	mux.Handle("GET /api/personas", protected(s.handleListPersonas))
	mux.Handle("POST /api/personas", protected(s.handleCreatePersona))
	mux.Handle("GET /api/personas/{id}", protected(s.handleGetPersona))
	mux.Handle("PUT /api/personas/{id}", protected(s.handleUpdatePersona))
	mux.Handle("DELETE /api/personas/{id}", protected(s.handleDeletePersona))
	mux.Handle("PATCH /api/personas/{id}/activate", protected(s.handleActivatePersona))

	// CV parsing endpoints
	mux.Handle("POST /api/personas/parse-cv", protected(s.handleParseCV))
	mux.Handle("POST /api/personas/parse-text", protected(s.handleParseText))
	mux.Handle("POST /api/personas/from-cv", protected(s.handleCreateFromCV))

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.withRateLimit(middleware.RequestLogger(deps.Logger)(middleware.CORS(cfg.AllowedOrigins)(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      180 * time.Second, // one completion call per parse request
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the full middleware chain and routes.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("server starting")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		defer s.rateLimiter.Stop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		s.logger.Info().Msg("server stopped")
		return nil
	})

	return g.Wait()
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.database.Ping(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("health check: database unreachable")
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unhealthy",
				"service":  ServiceName,
				"database": "unreachable",
			})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "healthy", "service": ServiceName})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, data any, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to a status and writes it. Internal errors are
// logged and replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	status := HTTPStatus(err)
	body := map[string]any{"error": err.Error()}

	var incomplete *parsing.IncompleteExtractionError
	switch {
	case status == http.StatusInternalServerError:
		logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		body["error"] = "internal server error"
	case errors.As(err, &incomplete):
		body["missing"] = incomplete.Missing
	}
	if status >= http.StatusBadGateway {
		logger.Warn().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("upstream failure")
	}
	writeJSON(w, status, body, logger)
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; forwarded headers are not
// trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(math.Ceil(info.RetryAfter.Seconds()))
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn().
		Str("client", s.extractClientID(r)).
		Str("path", r.URL.Path).
		Int("limit", info.Limit).
		Dur("retry_after", info.RetryAfter).
		Msg("rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
