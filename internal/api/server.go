// Package api exposes the deck analysis service over HTTP and pushes
// simulation job events over a websocket.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/analysis"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/api/handlers"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/api/websocket"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/jobs"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/metrics"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage"
)

// Server represents the REST API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	cfg        Config
	logger     *zap.Logger

	wsHub    *websocket.Hub
	analysis *analysis.Service
	jobs     *jobs.Manager
	catalog  handlers.CardCatalog
	metrics  *metrics.SimulationMetrics
	db       *storage.DB
}

// Config holds configuration for the API server.
type Config struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	// AllowedOrigins lists CORS and websocket origins. Patterns may use one
	// wildcard, e.g. "http://localhost:*".
	AllowedOrigins []string
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		RequestTimeout: 60 * time.Second,
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*", "https://localhost:*"},
	}
}

// Deps are the services the handlers call. Hub is created when nil; Catalog
// and DB may be nil, which disables the card and backup routes.
type Deps struct {
	Analysis *analysis.Service
	Jobs     *jobs.Manager
	Catalog  handlers.CardCatalog
	Metrics  *metrics.SimulationMetrics
	DB       *storage.DB
	Hub      *websocket.Hub
}

// NewServer creates a new API server.
func NewServer(cfg Config, deps Deps, logger *zap.Logger) *Server {
	def := DefaultConfig()
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = def.AllowedOrigins
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Metrics == nil && deps.Analysis != nil {
		deps.Metrics = deps.Analysis.Metrics()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewSimulationMetrics()
	}
	if deps.Hub == nil {
		deps.Hub = websocket.NewHub(cfg.AllowedOrigins, logger)
	}

	s := &Server{
		router:   chi.NewRouter(),
		cfg:      cfg,
		logger:   logger.Named("api"),
		wsHub:    deps.Hub,
		analysis: deps.Analysis,
		jobs:     deps.Jobs,
		catalog:  deps.Catalog,
		metrics:  deps.Metrics,
		db:       deps.DB,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Content-Type enforcement for POST/PUT/PATCH only (not GET/DELETE/OPTIONS)
	s.router.Use(jsonContentType)
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				}
				if status >= http.StatusInternalServerError {
					logger.Warn("request", fields...)
					return
				}
				logger.Debug("request", fields...)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// jsonContentType enforces application/json for requests with bodies.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType != "application/json" && !strings.HasPrefix(contentType, "application/json;") {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Start starts the hub and serves HTTP in the background. Listen errors are
// reported before Start returns.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}

	go s.wsHub.Run()

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", zap.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the API server and the websocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// WebSocketHub returns the WebSocket hub.
func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
