package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"chorus/internal/config"
	"chorus/internal/daemon"
	"chorus/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("chorusd failed", logging.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	d, err := daemon.New(cfg, logger, daemon.Options{})
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("chorusd shutting down")
	return nil
}
