package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/zerotwo/openaq-watcher/internal/api"
	"github.com/zerotwo/openaq-watcher/internal/config"
	"github.com/zerotwo/openaq-watcher/internal/db"
	"github.com/zerotwo/openaq-watcher/internal/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("api failed: %v", err)
	}
}

func run() error {
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

	srv := api.New(cfg, db.NewStore(pool))
	logger.Info().Str("addr", cfg.ListenAddr()).Msg("ops API listening")

	return srv.Run(ctx)
}
