package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mrwolf/journal-server/internal/analysis"
	"github.com/mrwolf/journal-server/internal/api"
	"github.com/mrwolf/journal-server/internal/config"
	"github.com/mrwolf/journal-server/internal/db"
	"github.com/mrwolf/journal-server/internal/llm"
	"github.com/mrwolf/journal-server/internal/logging"
	"github.com/mrwolf/journal-server/internal/scheduler"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting journal-server", zap.String("port", cfg.Port), zap.String("timezone", cfg.Timezone))

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}

	// Create LLM client
	llmClient, err := llm.NewClient(cfg.LLMURL, cfg.LLMModel, cfg.LLMAPIKey, cfg.LLMTimeout)
	if err != nil {
		logger.Fatal("failed to create llm client", zap.Error(err))
	}

	// Validate the LLM connection at startup
	if llmClient.Configured() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := llmClient.HealthCheck(ctx); err != nil {
			logger.Warn("llm health check failed, analysis will use the local fallback until it recovers", zap.Error(err))
		} else {
			logger.Info("llm connected", zap.String("url", cfg.LLMURL), zap.String("model", llmClient.Model()))
		}
		cancel()
	} else {
		logger.Info("no llm api key configured, using local analysis only")
	}

	analyzer := analysis.NewAnalyzer(llmClient, cfg.LLMTimeout, logger)

	// Create and start scheduler
	sched, err := scheduler.New(database, llmClient, scheduler.Config{
		Timezone: cfg.Timezone,
		Actors:   cfg.Actors(),
	}, logger)
	if err != nil {
		logger.Fatal("failed to create scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	// Create router
	router := api.NewRouter(cfg, database, analyzer, llmClient, sched, logger)

	// Start server
	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-done
	logger.Info("shutting down gracefully")

	// Give ongoing requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	if err := sched.Stop(); err != nil {
		logger.Error("scheduler shutdown error", zap.Error(err))
	}

	if err := database.Close(); err != nil {
		logger.Error("database close error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
