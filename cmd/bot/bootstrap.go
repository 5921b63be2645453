package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/gabrielschull/TraderML/internal/backtest"
	"github.com/gabrielschull/TraderML/internal/broker"
	"github.com/gabrielschull/TraderML/internal/engine"
	"github.com/gabrielschull/TraderML/internal/interfaces"
	"github.com/gabrielschull/TraderML/internal/logger"
	"github.com/gabrielschull/TraderML/internal/news"
	"github.com/gabrielschull/TraderML/internal/sentiment"
	"github.com/gabrielschull/TraderML/internal/store"
	"github.com/gabrielschull/TraderML/internal/trace"
	"github.com/gabrielschull/TraderML/internal/tradelog"
)

// initializeSystem initializes environment, logger, and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration.
func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("TRADER_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old tradelog files per the retention policy.
func compressOldLogs(ctx context.Context, cfg *store.Config) {
	if err := tradelog.CompressOlder(cfg.LogRetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}
}

// buildGateway creates the Alpaca-backed broker client. The same client
// serves live trading and historical replay.
func buildGateway(cfg *store.Config) *broker.Client {
	return broker.New(broker.Params{
		APIKey:    cfg.AlpacaKey(),
		APISecret: cfg.AlpacaSecret(),
		BaseURL:   cfg.Alpaca.BaseURL,
	})
}

// buildClassifiers creates the configured classifier and the cached,
// neutral-degrading wrapper around it. The live loop consumes the wrapper
// so a dead endpoint skips the iteration; the backtester consumes the raw
// classifier so an inference failure fails the run instead of replaying
// fabricated neutral days.
func buildClassifiers(ctx context.Context, cfg *store.Config) (raw, cached interfaces.Classifier) {
	switch cfg.Classifier.Provider {
	case "finbert":
		fb := sentiment.NewFinBERTClassifier(sentiment.FinBERTConfig{
			BaseURL: cfg.Classifier.BaseURL,
			Model:   cfg.Classifier.Model,
			Token:   cfg.ClassifierToken(),
			Timeout: cfg.ClassifierTimeout(),
		})
		if err := fb.Ready(ctx); err != nil {
			logger.Warn(ctx, "FinBERT endpoint not ready", "error", err)
		}
		raw = fb
		logger.Info(ctx, "Using FinBERT classifier", "model", cfg.Classifier.Model)
	default:
		raw = sentiment.NewLexiconClassifier()
		logger.Info(ctx, "Using lexicon classifier")
	}

	svcCfg := sentiment.DefaultServiceConfig()
	svcCfg.CacheDuration = cfg.ClassifierCacheTTL()
	return raw, sentiment.NewService(raw, svcCfg)
}

// buildController wires the gateway, classifier, scraper fallback, and
// backtester into the strategy controller.
func buildController(ctx context.Context, cfg *store.Config) (*engine.Controller, error) {
	gw := buildGateway(cfg)
	raw, cached := buildClassifiers(ctx, cfg)
	scraper := news.NewScraper(10 * time.Second)
	runner := backtest.New(gw, raw, cfg.Backtest.InitialEquity)

	ctrl := engine.New(engine.Deps{
		Gateway:          gw,
		Classifier:       cached,
		Fallback:         scraper,
		Backtester:       runner,
		IterationTimeout: cfg.IterationTimeout(),
	})

	if cfg.StrategySet {
		if _, err := ctrl.Configure(ctx, cfg.Strategy.AsPatch()); err != nil {
			return nil, fmt.Errorf("applying strategy config: %w", err)
		}
	}
	return ctrl, nil
}
