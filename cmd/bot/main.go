package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gabrielschull/TraderML/internal/control"
	"github.com/gabrielschull/TraderML/internal/logger"
	"github.com/gabrielschull/TraderML/internal/trace"
	"github.com/gabrielschull/TraderML/internal/tradelog"
)

func main() {
	if err := initializeSystem(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		os.Exit(1)
	}

	compressOldLogs(ctx, cfg)

	ctrl, err := buildController(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to build controller", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           control.New(ctrl),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info(ctx, "Control API listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithErr(ctx, "Control API failed", err)
			cancel()
		}
	}()

	var sched *cron.Cron
	if cfg.Mode == "LIVE" {
		sched = cron.New(cron.WithSeconds())
		if _, err := sched.AddFunc(cfg.CronSpec, func() {
			ctrl.RunIteration(ctx)
		}); err != nil {
			logger.ErrorWithErr(ctx, "Invalid cron_spec", err, "cron_spec", cfg.CronSpec)
			os.Exit(1)
		}
		sched.Start()
		logger.Info(ctx, "Live trading schedule started", "cron_spec", cfg.CronSpec)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigc:
		logger.Info(ctx, "Shutting down")
	case <-ctx.Done():
	}

	if sched != nil {
		<-sched.Stop().Done()
	}

	if path, err := tradelog.SummarizeToday(); err == nil && path != "" {
		logger.Info(ctx, "Daily trade summary written", "path", path)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Control API shutdown", "error", err)
	}
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Tracer shutdown", "error", err)
	}
}
