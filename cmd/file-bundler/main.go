package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/filebundler/file-bundler/internal/adapter/sqlite"
	"github.com/filebundler/file-bundler/internal/allowlist"
	"github.com/filebundler/file-bundler/internal/config"
	"github.com/filebundler/file-bundler/internal/fetcher"
	"github.com/filebundler/file-bundler/internal/logger"
	"github.com/filebundler/file-bundler/internal/port"
	"github.com/filebundler/file-bundler/internal/service/bundler"
	"github.com/filebundler/file-bundler/internal/service/server"
)

const version = "0.1.0"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zapLogger := logger.GetZapLogger()
	zapLogger.Info("starting file-bundler",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Build the domain allowlist
	allow, err := allowlist.New(cfg.Fetch.AllowedDomains)
	if err != nil {
		zapLogger.Fatal("invalid allowlist configuration", zap.Error(err))
	}

	// Open the bundle history store when enabled
	var history port.HistoryStore
	if cfg.History.Enabled {
		store, err := sqlite.Open(cfg.History.DBPath)
		if err != nil {
			zapLogger.Fatal("failed to open history database",
				zap.Error(err), zap.String("path", cfg.History.DBPath))
		}
		defer store.Close()
		history = store
		zapLogger.Info("bundle history enabled", zap.String("path", cfg.History.DBPath))
	}

	// Create fetch client
	fetchClient := fetcher.New(&fetcher.Config{
		Timeout:       cfg.Fetch.GetTimeout(),
		SkipTLSVerify: cfg.Fetch.SkipTLSVerify,
		UserAgent:     "file-bundler/" + version,
	})

	// Create bundler service
	bundlerCfg := &bundler.Config{
		Concurrency:   cfg.Fetch.Concurrency,
		MaxFiles:      cfg.Fetch.MaxFiles,
		MaxFileBytes:  cfg.Fetch.GetMaxFileSize(),
		MaxTotalBytes: cfg.Fetch.GetMaxTotalSize(),
	}
	bundlerService := bundler.New(bundlerCfg, allow, fetchClient, history, zapLogger)

	// Create single-file proxy handler
	proxyHandler := server.NewProxyHandler(allow, fetchClient, cfg.Fetch.GetMaxFileSize(), zapLogger)

	// Create HTTP server
	serverCfg := &server.Config{
		BindAddr:       cfg.HTTP.BindAddr,
		ReadTimeout:    cfg.HTTP.GetReadTimeout(),
		WriteTimeout:   cfg.HTTP.GetWriteTimeout(),
		IdleTimeout:    cfg.HTTP.GetIdleTimeout(),
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		EnableHistory:  cfg.History.Enabled,
	}
	httpServer := server.New(serverCfg, bundlerService, proxyHandler, history, zapLogger)

	// Start HTTP server
	go func() {
		if err := httpServer.Start(); err != nil {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	zapLogger.Info("application started successfully",
		zap.String("http_addr", cfg.HTTP.BindAddr),
		zap.Strings("allowed_domains", cfg.Fetch.AllowedDomains),
	)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("shutdown signal received, stopping services...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		zapLogger.Error("failed to stop HTTP server gracefully", zap.Error(err))
	}

	zapLogger.Info("application stopped successfully")
}
