// Package bootstrap wires the shared dependency graph for the api and
// worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finsight-cl/finsight/internal/config"
	"github.com/finsight-cl/finsight/internal/core/domain"
	"github.com/finsight-cl/finsight/internal/core/ports"
	"github.com/finsight-cl/finsight/internal/core/usecase"
	"github.com/finsight-cl/finsight/internal/infrastructure/normalize"
	excelparser "github.com/finsight-cl/finsight/internal/infrastructure/parser/excel"
	pdfparser "github.com/finsight-cl/finsight/internal/infrastructure/parser/pdf"
	natsqueue "github.com/finsight-cl/finsight/internal/infrastructure/queue/nats"
	"github.com/finsight-cl/finsight/internal/infrastructure/queue/noop"
	"github.com/finsight-cl/finsight/internal/infrastructure/repository/postgres"
	"github.com/finsight-cl/finsight/internal/infrastructure/resilience"
	"github.com/finsight-cl/finsight/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Repo     ports.JobRepository
	Storage  ports.ObjectStorage
	Events   ports.EventPublisher
	SubmitUC ports.JobIngestor
	Runner   ports.PipelineRunner

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewJobRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath, cfg.StorageBucket)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	var events ports.EventPublisher
	var closeEvents func()
	if cfg.NATSURL != "" {
		publisher, err := natsqueue.New(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
			Executor: resilience.NewExecutor(resilience.DefaultPolicy(), logger),
			Logger:   logger,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		events = publisher
		closeEvents = publisher.Close
	} else {
		events = noop.New(logger)
		closeEvents = func() {}
	}

	runner := usecase.NewPipelineRunner(
		Parsers(cfg.DefaultCurrency),
		usecase.NewAnalyzer(),
		repo,
		logger,
	)

	return &App{
		Config:   cfg,
		Repo:     repo,
		Storage:  storage,
		Events:   events,
		SubmitUC: usecase.NewSubmitJobUseCase(repo, storage),
		Runner:   runner,
		closeFn: func() {
			closeEvents()
			_ = db.Close()
		},
	}, nil
}

// Parsers builds the source parser registry. The pipeline CLI uses it
// directly so manual runs and the worker resolve source types the same way.
func Parsers(currency string) map[domain.SourceType]ports.SourceParser {
	return map[domain.SourceType]ports.SourceParser{
		domain.SourceExcel: excelparser.New(normalize.Options{Currency: currency}),
		domain.SourcePDF:   pdfparser.New(),
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
