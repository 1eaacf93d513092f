package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wordpoll/internal/app"
	"wordpoll/internal/auth"
	"wordpoll/internal/config"
	"wordpoll/internal/domain"
	"wordpoll/internal/store"
	httpTransport "wordpoll/internal/transport/http"
)

//go:embed web/*
var webFS embed.FS

func main() {
	// Load configuration
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

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting word cloud poll server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"pollID", cfg.Poll.ID,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Open storage backend
	backend, err := store.Open(ctx, store.Options{
		Driver:        cfg.Store.Driver,
		PollID:        cfg.Poll.ID,
		DatabaseURL:   cfg.Store.DatabaseURL,
		RedisAddr:     cfg.Store.RedisAddr,
		RedisPassword: cfg.Store.RedisPassword,
		RedisDB:       cfg.Store.RedisDB,
	})
	if err != nil {
		logger.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	verifier, err := auth.NewVerifier(cfg.Admin.Password, cfg.Admin.PasswordHash)
	if err != nil {
		logger.Error("admin credential setup failed", "error", err)
		os.Exit(1)
	}

	questions, err := domain.NewQuestions(cfg.Poll.Questions)
	if err != nil {
		logger.Error("invalid questions", "error", err)
		os.Exit(1)
	}

	// Create poll
	poll, err := app.NewPoll(ctx, app.Options{
		PollID:    cfg.Poll.ID,
		Questions: questions,
		TopN:      cfg.Poll.TopN,
		Store:     backend,
		Verifier:  verifier,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("poll setup failed", "error", err)
		os.Exit(1)
	}
	defer poll.Close()

	sessions := app.NewSessions(cfg.Admin.SessionTTL, logger)
	defer sessions.Close()

	tokens := auth.NewTokenIssuer(cfg.Admin.TokenSecret, cfg.Admin.SessionTTL)

	// Get the web subdirectory from embed FS
	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		logger.Error("failed to get web subdirectory", "error", err)
	}

	// Create HTTP server
	server := httpTransport.NewServer(cfg, poll, sessions, tokens, logger, webContent)

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
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
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
