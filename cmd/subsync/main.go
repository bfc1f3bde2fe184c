package main

import (
	"context"
	"fmt"
	"os"

	"github.com/billhive/subsync/internal/airtable"
	"github.com/billhive/subsync/internal/cache"
	"github.com/billhive/subsync/internal/config"
	"github.com/billhive/subsync/internal/httpclient"
	"github.com/billhive/subsync/internal/logger"
	"github.com/billhive/subsync/internal/sellsy"
	"github.com/billhive/subsync/internal/service"
	"github.com/joho/godotenv"
)

func main() {
	// .env is for local runs; in production everything comes from the
	// environment directly
	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Errorw("synchronization failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Configuration, log *logger.Logger) error {
	ctx := context.Background()

	httpClient := httpclient.NewDefaultClient(cfg.Sync.Timeout)

	store := airtable.NewClient(cfg.Airtable, httpClient, log)
	subscriptionRepo := airtable.NewSubscriptionRepository(store)
	gridRepo := airtable.NewGridRepository(store)

	runCache := cache.NewInMemoryCache()
	billing := sellsy.NewClient(cfg.Sellsy, httpClient, runCache, log)

	resolver := service.NewGridResolver(gridRepo, runCache, log)
	sync := service.NewSyncService(cfg, log, subscriptionRepo, resolver, billing, nil)

	summary, err := sync.Run(ctx)
	if err != nil {
		return err
	}

	// Per group failures are part of the summary, not the exit code
	if summary.Failed > 0 {
		log.Warnw("run finished with failed invoice groups", "failed", summary.Failed)
	}
	return nil
}
