package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/filebundler/file-bundler/internal/metrics"
	"github.com/filebundler/file-bundler/internal/port"
	"github.com/filebundler/file-bundler/internal/service/bundler"
)

// Config contains HTTP server configuration
type Config struct {
	BindAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64
	EnableHistory  bool
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		BindAddr:     "0.0.0.0:8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
		MaxBodyBytes: 1024 * 1024,
	}
}

// Server represents the HTTP API server
type Server struct {
	config         *Config
	logger         *zap.Logger
	server         *http.Server
	bundleHandler  *BundleHandler
	proxyHandler   *ProxyHandler
	historyHandler *HistoryHandler
}

// New creates a new HTTP server
func New(cfg *Config, svc *bundler.Service, proxy *ProxyHandler, history port.HistoryStore, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		config: cfg,
		logger: logger,
	}

	s.bundleHandler = NewBundleHandler(svc, cfg.MaxBodyBytes, logger)
	s.proxyHandler = proxy

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/api/zip", s.bundleHandler.HandleBundle)
	mux.HandleFunc("/api/download", s.proxyHandler.HandleDownload)

	if cfg.EnableHistory && history != nil {
		s.historyHandler = NewHistoryHandler(history, logger)
		mux.HandleFunc("/api/bundles", s.historyHandler.HandleRecent)
	}

	handler := Chain(mux,
		LoggingMiddleware(logger),
		MetricsMiddleware(),
		RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute),
	)

	s.server = &http.Server{
		Addr:         cfg.BindAddr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError emits the bundling endpoints' JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
