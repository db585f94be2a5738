// Package main is the entry point for the mise background worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"mise/internal/infrastructure/config"
	"mise/internal/infrastructure/storage/postgres"
	"mise/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: !cfg.IsProduction(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting mise worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	checker := NewLedgerChecker(pool, log)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.LedgerCheckSchedule, func() {
		if err := checker.Run(ctx); err != nil {
			log.Errorw("ledger check failed", "error", err)
		}
	}); err != nil {
		log.Fatalw("invalid ledger check schedule", "schedule", cfg.LedgerCheckSchedule, "error", err)
	}

	if _, err := scheduler.AddFunc("@every 5m", func() {
		pool.LogStats(ctx)
	}); err != nil {
		log.Fatalw("failed to schedule pool stats job", "error", err)
	}

	scheduler.Start()
	log.Infow("scheduler started", "ledger_check_schedule", cfg.LedgerCheckSchedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	// Let a running job finish before exiting.
	<-scheduler.Stop().Done()
	log.Info("worker stopped")
}
