// Command reindex rebuilds the customer index once and exits. It is the
// explicit rebuild path for deployments that do not run the server's
// scheduled rebuild.
package main

import (
	"context"
	"customer_index/internal/app"
	"customer_index/internal/config"
	"customer_index/pkg/logger"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	timeout := flag.Duration("timeout", 30*time.Minute, "maximum build duration")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info"})
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	stores, err := app.OpenStores(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stores")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, *timeout)

	result, err := app.NewBuilder(cfg, stores, log, nil).Build(ctx)
	cancel()
	stop()
	stores.Close()

	if err != nil {
		log.Error().Err(err).Msg("Reindex failed")
		os.Exit(1)
	}

	log.Info().
		Str("build_id", result.BuildID).
		Int("customers", result.Index.Len()).
		Strs("skipped", result.SkippedSources).
		Str("fingerprint", result.Index.Fingerprint).
		Str("index_path", cfg.IndexPath).
		Msg("Reindex complete")
}
