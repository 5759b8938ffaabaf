package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/zerotwo/openaq-watcher/internal/config"
	"github.com/zerotwo/openaq-watcher/internal/db"
	"github.com/zerotwo/openaq-watcher/internal/etl"
	"github.com/zerotwo/openaq-watcher/internal/logging"
	"github.com/zerotwo/openaq-watcher/internal/openaq"
	"github.com/zerotwo/openaq-watcher/internal/warehouse"
)

func main() {
	once := flag.Bool("once", false, "run a single ingestion cycle and exit")
	flag.Parse()

	if err := run(*once); err != nil {
		log.Fatalf("watcher failed: %v", err)
	}
}

func run(once bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.InitSchema(ctx, pool); err != nil {
		return err
	}
	logger.Info().Msg("raw schema ready")

	client := openaq.NewClient(openaq.ClientConfig{
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		RequestDelay: cfg.RequestDelay,
		RetryDelay:   cfg.RetryDelay,
		MaxAttempts:  cfg.MaxAttempts,
		HTTPClient:   &http.Client{Timeout: cfg.HTTPTimeout},
		Logger:       logger,
	})

	fetcher := etl.NewFetcher(client, cfg.PageSize, logger)
	repo := db.NewRepository(pool, logger)
	transformer := warehouse.NewTransformer(pool, logger)
	processor := etl.NewProcessor(fetcher, repo, transformer, cfg.MaxLocations, cfg.DryRun, logger)

	if once {
		_, err := processor.RunCycle(ctx)
		return err
	}

	return etl.NewScheduler(processor, cfg.FetchInterval, logger).Run(ctx)
}
