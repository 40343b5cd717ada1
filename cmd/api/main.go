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

	"salessense-go/internal/api"
	"salessense-go/internal/cache"
	"salessense-go/internal/config"
	"salessense-go/internal/extractor"
	"salessense-go/internal/llm"
	"salessense-go/internal/logger"
	"salessense-go/internal/pipeline"
	"salessense-go/internal/processor"
	"salessense-go/internal/transcription"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)
	log.WithField("environment", cfg.Environment).Info("starting service")

	gen, err := newGenerator(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to configure llm gateway")
	}
	tr, err := newTranscriber(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to configure transcription")
	}

	settings := extractor.Settings{
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
	}
	orch := pipeline.New(gen, settings, cfg.StageWorkers, cfg.MetricsRepairRetry, log.Component("pipeline"))
	results := cache.New(cfg.CacheMaxEntries, cfg.CacheTTL)
	svc := processor.New(orch, tr, results, log.Component("processor"))
	handler := api.NewHandler(svc, log, cfg.MaxUploadBytes)

	log.WithField("stage_workers", cfg.StageWorkers).
		WithField("cache_capacity", cfg.CacheMaxEntries).
		WithField("cache_ttl", cfg.CacheTTL.String()).
		Info("analysis pipeline ready")

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Router(cfg.AllowedOrigins),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.TranscribeTimeout + 3*cfg.LLMTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	log.Info("server stopped")
}

func newGenerator(cfg *config.Config, log *logger.Logger) (llm.Generator, error) {
	if cfg.UseMockLLM {
		log.Warn("USE_MOCK_LLM enabled, serving fixture responses")
		return llm.Mock{}, nil
	}
	client, err := llm.NewClient(llm.Options{
		GatewayURL: cfg.LLMGatewayURL,
		APIKey:     cfg.LLMAPIKey,
		Model:      cfg.LLMModel,
		Timeout:    cfg.LLMTimeout,
		MaxRetries: cfg.LLMMaxRetries,
	}, log.Component("llm"))
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newTranscriber(cfg *config.Config, log *logger.Logger) (transcription.Transcriber, error) {
	if cfg.UseMockTranscribe {
		log.Warn("USE_MOCK_TRANSCRIBE enabled, serving a fixed transcript")
		return transcription.Mock{}, nil
	}
	client, err := transcription.NewClient(transcription.Options{
		BaseURL: cfg.TranscribeURL,
		APIKey:  cfg.TranscribeAPIKey,
		Timeout: cfg.TranscribeTimeout,
	}, log.Component("transcription"))
	if err != nil {
		return nil, err
	}
	return client, nil
}
