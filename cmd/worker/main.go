package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finsight-cl/finsight/internal/bootstrap"
	"github.com/finsight-cl/finsight/internal/config"
	"github.com/finsight-cl/finsight/internal/core/usecase"
	"github.com/finsight-cl/finsight/internal/infrastructure/clock"
	"github.com/finsight-cl/finsight/internal/observability/logging"
	"github.com/finsight-cl/finsight/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	worker := usecase.NewWorker(
		app.Repo,
		app.Storage,
		app.Runner,
		app.Events,
		clock.NewSystem(),
		workerMetrics,
		logger,
		time.Duration(cfg.WorkerPollIntervalSeconds)*time.Second,
	)

	logger.Info("worker polling for pending jobs",
		"interval_seconds", cfg.WorkerPollIntervalSeconds)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
