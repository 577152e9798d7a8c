package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/ai"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/analytics"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/config"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/db"
	httpapi "github.com/marwie0904/leadify-RE-APP-sub001/internal/http"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "leadify-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	var adapter ai.Adapter
	if cfg.LLMBaseURL == "" {
		adapter = ai.MockAdapter{ModelVersion: "mock-v1"}
		logger.Info().Msg("using mock AI adapter")
	} else {
		adapter = ai.OpenAICompatAdapter{
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
			APIKey:  cfg.LLMAPIKey,
		}
	}

	usage := analytics.NewReporter(store, logger)
	defer usage.Close()

	orchestrator := &service.Orchestrator{
		Store:             store,
		AI:                adapter,
		Usage:             usage,
		Logger:            logger,
		ExtractionTimeout: cfg.ExtractionTimeout,
	}

	router := httpapi.Router(cfg, store, orchestrator, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
