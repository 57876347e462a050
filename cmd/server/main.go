package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"quizrally/internal/app"
	"quizrally/internal/config"
	"quizrally/internal/quiz"
	"quizrally/internal/stamp"
	"quizrally/internal/store"
	httpTransport "quizrally/internal/transport/http"
)

func main() {
	// Load .env if present; real env vars win either way
	godotenv.Load()

	cfg := config.Load()

	// Set up logger
	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting quizrally server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Question bank and stamp catalog share the sqlite store; a missing
	// database degrades to the built-in fallbacks rather than failing.
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Warn("sqlite unavailable, using fallback question set", "error", err)
		db = nil
	} else {
		defer db.Close()
	}

	questions := quiz.NewBank(db, logger)
	stamps := stamp.NewDBCatalog(db, logger)

	// Room registry and matchmaking
	hub := app.NewHub(cfg, questions, stamps, logger)
	defer hub.Close()

	queue := app.NewMatchQueue(hub, cfg.Match, logger)
	defer queue.Close()

	// Create HTTP server
	server := httpTransport.NewServer(cfg, hub, queue, stamps, logger)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
