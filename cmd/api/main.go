// Command api is the Podium Data API server: it serves the coach-facing
// HTTP API and runs the daily ingestion/evaluation pipeline on its
// internal schedule.
//
// Usage:
//
//	podium-api
//	API_PORT=8080 podium-api

// @title Podium Data API
// @version 1.0.0
// @description Athlete readiness pipeline: metric ingestion, rolling baselines, deviation alerts, and coach notifications.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @contact.name Podium Data
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/jhigh13/podium-data/internal/api"
	"github.com/jhigh13/podium-data/internal/auth"
	"github.com/jhigh13/podium-data/internal/cache"
	"github.com/jhigh13/podium-data/internal/config"
	"github.com/jhigh13/podium-data/internal/db"
	"github.com/jhigh13/podium-data/internal/notify"
	"github.com/jhigh13/podium-data/internal/runner"

	_ "github.com/jhigh13/podium-data/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Initialize cache
	appCache := cache.New(cfg.CacheTTL, cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled, "ttl", cfg.CacheTTL)

	// Wire the pipeline and its daily schedule
	deps := runner.NewDeps(pool.Pool, cfg, logger)
	opts := runner.OptionsFromConfig(cfg)
	sched, err := runner.NewScheduler(cfg.DailyJobTime, cfg.DailyJobTimezone, func(runCtx context.Context) {
		if _, err := runner.Run(runCtx, deps, opts, logger); err != nil {
			logger.Error("Pipeline run failed", "error", err)
		}
	}, logger)
	if err != nil {
		logger.Error("Failed to configure scheduler", "error", err)
		os.Exit(1)
	}
	go sched.Start(ctx)
	logger.Info("Daily pipeline scheduled",
		"at", cfg.DailyJobTime, "tz", cfg.DailyJobTimezone)

	// Notification log retention
	go runner.StartCleanup(ctx, notify.NewPGLog(pool.Pool), cfg.CleanupInterval, cfg.NotificationRetention, logger)

	// Create router
	oauth := auth.NewOAuthClient(cfg.TPAuthBase, cfg.TPClientID, cfg.TPClientSecret,
		cfg.TPRedirectURI, cfg.TPScope, logger)
	creds := auth.NewPGStore(pool.Pool)
	router := api.NewRouter(pool.Pool, appCache, cfg, sched, oauth, creds)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Podium Data API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
