package main

import (
	"context"
	"customer_index/internal/api"
	"customer_index/internal/app"
	"customer_index/internal/config"
	"customer_index/internal/processor"
	"customer_index/internal/scheduler"
	"customer_index/internal/service"
	"customer_index/internal/storage/gcs"
	"customer_index/pkg/crypto"
	"customer_index/pkg/logger"
	"customer_index/pkg/metrics"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

const (
	appName          = "customer_index"
	publishWorkers   = 2
	scheduledTimeout = 30 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info"})
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log.Info().
		Str("name", appName).
		Str("source_dir", cfg.SourceDir).
		Str("backend", cfg.IndexBackend).
		Str("index_path", cfg.IndexPath).
		Msg("Starting application")

	stores, err := app.OpenStores(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stores")
	}
	defer stores.Close()

	metricsCollector := metrics.NewMetricsCollector(log)
	publisher, uploader := setupPublisher(cfg, log)

	var sink service.SnapshotSink
	if publisher != nil {
		sink = publisher
	}

	builder := app.NewBuilder(cfg, stores, log, metricsCollector)
	indexService := service.NewIndexService(builder, stores.Index, cfg.IndexBackend, sink, log)

	initCtx, cancel := context.WithTimeout(context.Background(), scheduledTimeout)
	err = indexService.Initialize(initCtx)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize index")
	}

	engine := processor.NewQueryEngine(indexService, stores.Records, log, metricsCollector)
	apiHandler := api.NewAPIHandler(engine, indexService, log)
	httpServer := api.NewServer(cfg.HTTPAddr, apiHandler, log)

	metricsCollector.StartMetricsServer(cfg.MetricsAddr)

	go func() {
		if err := httpServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
			os.Exit(1)
		}
	}()

	sched := setupScheduler(cfg, indexService, log)

	waitForShutdown(log, httpServer, metricsCollector, sched, publisher)

	if uploader != nil {
		if err := uploader.Close(); err != nil {
			log.Error().Err(err).Msg("Storage client close failed")
		}
	}
	log.Info().Msg("Application shutdown complete")
}

func setupPublisher(cfg *config.Config, log zerolog.Logger) (*service.SnapshotPublisher, *gcs.Uploader) {
	if !cfg.PublishEnabled() {
		return nil, nil
	}

	uploader, err := gcs.NewUploader(context.Background(), cfg.GCSBucket, cfg.GCSPrefix)
	if err != nil {
		log.Error().Err(err).Str("bucket", cfg.GCSBucket).Msg("Snapshot publishing disabled")
		return nil, nil
	}

	var signer *crypto.Signer
	if cfg.SigningKey != "" {
		signer = crypto.NewSigner(cfg.SigningKey, log)
	}

	return service.NewSnapshotPublisher(uploader, signer, publishWorkers, log), uploader
}

func setupScheduler(cfg *config.Config, indexService *service.IndexService, log zerolog.Logger) *scheduler.Scheduler {
	if cfg.RebuildSchedule == "" {
		return nil
	}

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.RebuildSchedule, indexService.RebuildJob(scheduledTimeout)); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.RebuildSchedule).Msg("Failed to schedule index rebuild")
	}
	sched.Start()

	return sched
}

func waitForShutdown(
	log zerolog.Logger,
	httpServer *api.Server,
	metricsCollector *metrics.MetricsCollector,
	sched *scheduler.Scheduler,
	publisher *service.SnapshotPublisher,
) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	if publisher != nil {
		if err := publisher.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Snapshot publisher shutdown failed")
		}
	}

	if err := metricsCollector.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Metrics collector shutdown failed")
	}
}
