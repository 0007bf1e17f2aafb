// Package api serves the gateway's HTTP surface: vocabulary lookups,
// session management, and device listings.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/scanbridge/internal/config"
	scandomain "github.com/ahrav/scanbridge/internal/domain/scanning"
	"github.com/ahrav/scanbridge/pkg/common"
	"github.com/ahrav/scanbridge/pkg/common/logger"
	"github.com/ahrav/scanbridge/pkg/common/otel"
)

// Server is the gateway's HTTP API server.
type Server struct {
	cfg      *config.Config
	defaults config.ResolvedDefaults

	service scandomain.SessionService

	logger  *logger.Logger
	tracer  trace.Tracer
	metrics APIMetrics

	router *chi.Mux
}

// NewServer builds the router with the gateway's middleware chain and binds
// every route.
func NewServer(
	cfg *config.Config,
	defaults config.ResolvedDefaults,
	service scandomain.SessionService,
	metrics APIMetrics,
	log *logger.Logger,
	tracer trace.Tracer,
) (*Server, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(otel.Middleware(tracer))
	r.Use(loggerMiddleware(log))
	r.Use(metricsMiddleware(metrics))
	if cfg.API.RatePerSecond > 0 {
		r.Use(rateLimitMiddleware(newClientRateLimiters(cfg.API.RatePerSecond, cfg.API.RateBurst)))
	}
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:      cfg,
		defaults: defaults,
		service:  service,
		logger:   log,
		tracer:   tracer,
		metrics:  metrics,
		router:   r,
	}

	s.routes()
	return s, nil
}

func loggerMiddleware(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				ctx := r.Context()
				log.Info(ctx, "Request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration", time.Since(start),
					"trace_id", otel.GetTraceID(ctx),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func metricsMiddleware(metrics APIMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				ctx := r.Context()
				metrics.IncRequestsTotal(ctx, r.Method, r.URL.Path, ww.Status())
				metrics.ObserveRequestDuration(ctx, r.Method, r.URL.Path, time.Since(start))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// clientRateLimiters hands out one token bucket per client address.
type clientRateLimiters struct {
	mu    sync.Mutex
	perIP map[string]*common.RateLimiter

	rps   float64
	burst int
}

func newClientRateLimiters(rps float64, burst int) *clientRateLimiters {
	if burst <= 0 {
		burst = 1
	}
	return &clientRateLimiters{
		perIP: make(map[string]*common.RateLimiter),
		rps:   rps,
		burst: burst,
	}
}

// allow reports whether the client behind addr may proceed. RealIP has
// rewritten RemoteAddr by the time this runs.
func (c *clientRateLimiters) allow(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	c.mu.Lock()
	limiter, ok := c.perIP[host]
	if !ok {
		limiter = common.NewRateLimiter(c.rps, c.burst)
		c.perIP[host] = limiter
	}
	c.mu.Unlock()

	return limiter.Allow()
}

func rateLimitMiddleware(limiters *clientRateLimiters) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.allow(r.RemoteAddr) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) routes() {
	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/readiness", s.handleReadiness)

		r.Route("/vocab", func(r chi.Router) {
			r.Get("/protocols", s.handleListProtocols)
			r.Get("/sources", s.handleListSources)
			r.Get("/colormodes", s.handleListColorModes)
			r.Get("/formats", s.handleListFormats)
			r.Get("/justifications", s.handleListJustifications)
			// Wildcard rather than {name} so MIME format names with a
			// slash resolve in one segment.
			r.Get("/{domain}/*", s.handleResolveName)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleStartSession)
			r.Get("/", s.handleListSessions)
			r.Get("/{id}", s.handleGetSession)
		})

		r.Get("/devices", s.handleListDevices)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// Start serves the API until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", s.cfg.API.Host, s.cfg.API.Port),
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "failed to shutdown server", "error", err)
		}
	}()

	s.logger.Info(ctx, "starting server",
		"addr", server.Addr,
		"service", "scan-gateway",
	)

	return server.ListenAndServe()
}
