package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bizcopilot/bizcopilot/internal/bizcontext"
	"github.com/bizcopilot/bizcopilot/internal/config"
	"github.com/bizcopilot/bizcopilot/internal/emailtool"
	"github.com/bizcopilot/bizcopilot/internal/gating"
	"github.com/bizcopilot/bizcopilot/internal/httpapi"
	"github.com/bizcopilot/bizcopilot/internal/llm"
	"github.com/bizcopilot/bizcopilot/internal/mail"
	"github.com/bizcopilot/bizcopilot/internal/orchestrator"
	"github.com/bizcopilot/bizcopilot/internal/server"
	"github.com/bizcopilot/bizcopilot/internal/storage"
	"github.com/bizcopilot/bizcopilot/internal/storage/sqlite"
	"github.com/bizcopilot/bizcopilot/internal/telemetry"
	"github.com/bizcopilot/bizcopilot/internal/tokens"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	shutdown, err := telemetry.InitTracer("bizcopilot", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Business context enrichment, degrading to no context on failure
	contexts := bizcontext.New(cfg.Auth.BaseURL,
		bizcontext.WithTimeout(cfg.Auth.Timeout),
		bizcontext.WithLogger(logger),
	)

	// Model gateway
	gateway := llm.New(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature,
		llm.WithBaseURL(cfg.LLM.BaseURL),
		llm.WithTimeout(cfg.LLM.Timeout),
	)

	// Email tool
	mailer, err := mail.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	if err != nil {
		log.Fatalf("Failed to create mail client: %v", err)
	}
	executor := emailtool.NewExecutor(mailer, logger)

	// Turn audit store
	var turns storage.TurnStore = storage.NoopStore{}
	if cfg.Storage.Driver == "sqlite" {
		store, err := sqlite.New(cfg.Storage.DSN)
		if err != nil {
			log.Fatalf("Failed to open turn store: %v", err)
		}
		turns = store
	}
	defer turns.Close()

	chat := orchestrator.New(orchestrator.Config{
		Contexts:    contexts,
		Gateway:     gateway,
		Gating:      gating.NewPolicy(cfg.Gating.TriggerPhrases),
		Email:       executor,
		Turns:       turns,
		Estimator:   tokens.NewEstimator(),
		Model:       cfg.LLM.Model,
		TurnTimeout: cfg.Chat.TurnTimeout,
		Logger:      logger,
	})

	srv := server.New(cfg.Server.Port, cfg.Chat.TurnTimeout, logger)
	httpapi.NewHandler(chat, logger).Mount(srv.Router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	case <-sigChan:
	}

	logger.Info("Shutdown signal received, stopping server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Server shutdown complete")
}
