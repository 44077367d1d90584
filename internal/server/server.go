// Package server exposes the analysis API over HTTP: request decoding,
// validation, error mapping, and the middleware chain. All inference,
// persistence, and messaging goes through the injected dependencies.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/spacesedan/sentigate/config"
	"github.com/spacesedan/sentigate/internal/auth"
	"github.com/spacesedan/sentigate/internal/events"
	"github.com/spacesedan/sentigate/internal/inference"
	"github.com/spacesedan/sentigate/internal/models"
	"github.com/spacesedan/sentigate/internal/telemetry"
	"github.com/spacesedan/sentigate/internal/workers"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

type LogStore interface {
	SaveRequestLog(ctx context.Context, entry models.LogEntry) error
	GetRequestLog(ctx context.Context, date, requestID string) (models.LogEntry, error)
	SaveInputFile(ctx context.Context, key string, data []byte, contentType string) error
	Ping(ctx context.Context) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, username string) (models.User, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Settings  *config.Settings
	Analyzer  inference.Analyzer
	Logs      LogStore
	Users     UserStore
	Tokens    *auth.TokenManager
	Pool      *workers.Pool
	Telemetry *telemetry.Emitter
	Publisher events.Publisher

	// Cache is optional and only used for health reporting. The analyzer
	// decorator owns the actual caching.
	Cache Pinger
}

type Server struct {
	cfg       *config.Settings
	analyzer  inference.Analyzer
	logs      LogStore
	users     UserStore
	tokens    *auth.TokenManager
	pool      *workers.Pool
	tele      *telemetry.Emitter
	publisher events.Publisher
	cache     Pinger

	limiter    *rate.Limiter
	httpServer *http.Server
	startedAt  time.Time
}

func New(deps Deps) *Server {
	s := &Server{
		cfg:       deps.Settings,
		analyzer:  deps.Analyzer,
		logs:      deps.Logs,
		users:     deps.Users,
		tokens:    deps.Tokens,
		pool:      deps.Pool,
		tele:      deps.Telemetry,
		publisher: deps.Publisher,
		cache:     deps.Cache,
		limiter:   rate.NewLimiter(rate.Limit(deps.Settings.RateLimit), deps.Settings.RateBurst),
		startedAt: time.Now(),
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Settings.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      deps.Settings.RequestTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/sentiment", s.handleSentiment)
	mux.HandleFunc("POST /api/v1/classify", s.handleClassify)
	mux.HandleFunc("POST /api/v1/chat", s.handleChat)
	mux.HandleFunc("POST /api/v1/classify-image", s.handleClassifyImage)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	mux.HandleFunc("GET /api/v1/logs/{date}/{id}", s.requireAuth(s.handleGetLog))

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/me", s.requireAuth(s.handleMe))

	var handler http.Handler = mux
	handler = s.recovery(handler)
	handler = s.rateLimit(handler)
	handler = s.cors(handler)
	handler = s.observability(handler)
	handler = s.requestID(handler)
	return handler
}

func (s *Server) Start() error {
	slog.Info("[Server] Listening",
		slog.String("addr", s.httpServer.Addr),
		slog.String("version", Version))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("[Server] Listen failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("[Server] Shutting down...")
	return s.httpServer.Shutdown(ctx)
}
