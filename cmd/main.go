package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/suara/internal/api"
	"github.com/satriahrh/suara/internal/backends"
	"github.com/satriahrh/suara/internal/config"
	"github.com/satriahrh/suara/internal/metrics"
	"github.com/satriahrh/suara/internal/pipeline"
	"github.com/satriahrh/suara/internal/websocket"
	"github.com/satriahrh/suara/usecase"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, cfgErr := config.Load()

	// Initialize logger
	var logger *zap.Logger
	if cfg.Development() || os.Getenv("APP_ENV") == "development" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	if cfgErr != nil {
		logger.Fatal("Invalid configuration", zap.Error(cfgErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize adapters
	store, closeStore, err := backends.NewSettingsStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize settings store", zap.Error(err))
	}
	defer closeStore()

	speechToText, closeSpeech, err := backends.NewSpeechToText(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize transcription backend", zap.Error(err))
	}
	defer closeSpeech()

	textToSpeech, err := backends.NewTextToSpeech(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize synthesis backend", zap.Error(err))
	}

	model, err := backends.NewLargeLanguageModel(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize completion backend", zap.Error(err))
	}

	// Initialize usecase services
	m := metrics.New()
	voiceService := usecase.NewVoiceService(
		usecase.VoiceServiceConfig{
			SilenceThreshold: cfg.SilenceThreshold,
			Defaults:         cfg.DefaultSettings,
		},
		store,
		backends.NewNormalizer(cfg, logger),
		speechToText,
		usecase.NewChatService(model, logger),
		textToSpeech,
		pipeline.NewRunner(logger, m),
		logger,
	)

	// Initialize WebSocket hub
	hub := websocket.NewHub(voiceService, logger)
	go hub.Run(ctx)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	api.InitMiddleware(e, logger)
	api.InitRoutes(e, api.Dependencies{
		Service:   voiceService,
		Hub:       hub,
		Metrics:   m.Handler(),
		StaticDir: cfg.StaticDir,
		Logger:    logger,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("transcription", speechToText.Name()),
		zap.String("synthesis", textToSpeech.Name()),
		zap.String("completion", model.Name()),
		zap.String("settingsStore", cfg.SettingsStore),
		zap.Int("retryMaxAttempts", cfg.RetryMaxAttempts))

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
