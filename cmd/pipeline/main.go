// Command pipeline runs parse, analysis and persistence for a single
// local file. It is the manual counterpart of the worker: same runner,
// same record store, but driven from the command line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/finsight-cl/finsight/internal/bootstrap"
	"github.com/finsight-cl/finsight/internal/config"
	"github.com/finsight-cl/finsight/internal/core/domain"
	"github.com/finsight-cl/finsight/internal/core/ports"
	"github.com/finsight-cl/finsight/internal/core/usecase"
	"github.com/finsight-cl/finsight/internal/infrastructure/repository/postgres"
	"github.com/finsight-cl/finsight/internal/observability/logging"
)

func main() {
	var (
		filePath   = flag.String("file", "", "path to the source file")
		sourceType = flag.String("type", "EXCEL", "source type: EXCEL or PDF")
		updateID   = flag.String("update-id", "", "existing job record id to update")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	logger := logging.NewTextLogger(os.Stderr, cfg.LogLevel)

	if *filePath == "" {
		fail(fmt.Errorf("flag -file is required"))
	}
	parsed, ok := domain.ParseSourceType(strings.ToUpper(*sourceType))
	if !ok {
		fail(fmt.Errorf("unknown source type %q, expected EXCEL or PDF", *sourceType))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A manual run stays useful without a reachable database: the
	// result is still printed, only persistence is skipped.
	var repo ports.JobRepository
	if db, err := postgres.OpenDB(cfg.PostgresDSN); err != nil {
		logger.Warn("record store unreachable, skipping persistence", "error", err)
	} else {
		defer db.Close()
		pgRepo := postgres.NewJobRepository(db)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			fail(err)
		}
		repo = pgRepo
	}

	runner := usecase.NewPipelineRunner(
		bootstrap.Parsers(cfg.DefaultCurrency),
		usecase.NewAnalyzer(),
		repo,
		logger,
	)

	result, err := runner.Run(ctx, ports.RunRequest{
		FilePath:   *filePath,
		SourceType: parsed,
		JobID:      *updateID,
	})
	if err != nil {
		fail(err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fail(err)
	}
}

func fail(err error) {
	_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"error": err.Error()})
	os.Exit(1)
}
