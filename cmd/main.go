package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"standupbot/api"
	"standupbot/config"
	"standupbot/db"
	"standupbot/scheduler"
	"standupbot/secrets"
	"standupbot/standup"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	store, err := db.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	logger.Info("connected to database")

	cipher, err := secrets.NewCipher(cfg.EncryptionKey)
	if err != nil {
		logger.Fatalf("failed to initialize credential cipher: %v", err)
	}

	dedupe, err := api.NewRedisDeduper(cfg.RedisURL)
	if err != nil {
		logger.Fatalf("failed to connect to redis: %v", err)
	}
	logger.Info("connected to redis")

	gateway := api.NewSlackClient(cipher, logger)

	var generator standup.Generator
	if cfg.OpenAIAPIKey != "" {
		generator = api.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		logger.Info("no OpenAI API key configured, using fallback summarizer only")
	}

	rounds := standup.NewLifecycle(store, gateway, logger)
	summarizer := standup.NewSummarizer(store, gateway, generator, logger)
	delayed := scheduler.NewDelayed(store, cfg.DelayedPollInterval, logger)
	coordinator := standup.NewCoordinator(store, rounds, summarizer, delayed, logger)

	delayed.Handle(standup.ActionResume, func(ctx context.Context, threadID string) {
		if _, err := coordinator.Resume(ctx, threadID); err != nil && !errors.Is(err, standup.ErrResumeInProgress) {
			logger.Errorf("scheduled resume failed for thread %s: %v", threadID, err)
		}
	})

	registry := scheduler.NewRegistry()
	engine := scheduler.NewEngine(store, registry, coordinator, cfg.CollectionWindow, cfg.RefreshInterval, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go engine.Run(ctx)
	go delayed.Run(ctx)

	svc := api.NewService(store, rounds, coordinator, gateway, dedupe, cfg.ManualWindow, logger)
	router := SetupRouter(svc)

	logger.Infof("server running on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}
