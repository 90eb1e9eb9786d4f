package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/finsight-cl/finsight/internal/core/domain"
	"github.com/finsight-cl/finsight/internal/core/ports"
)

// PipelineRunner sequences parse, analysis and persistence for one input
// file. Its primary contract is producing a correct payload; persistence is a
// best-effort side effect and its failure never invalidates the result.
type PipelineRunner struct {
	parsers  map[domain.SourceType]ports.SourceParser
	analyzer *Analyzer
	repo     ports.JobRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewPipelineRunner wires the runner. repo may be nil, which disables
// persistence entirely (manual runs without a reachable record store).
func NewPipelineRunner(
	parsers map[domain.SourceType]ports.SourceParser,
	analyzer *Analyzer,
	repo ports.JobRepository,
	logger *slog.Logger,
) *PipelineRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineRunner{
		parsers:  parsers,
		analyzer: analyzer,
		repo:     repo,
		logger:   logger,
		now:      time.Now,
	}
}

func (uc *PipelineRunner) Run(ctx context.Context, req ports.RunRequest) (*domain.PipelineResult, error) {
	parser, ok := uc.parsers[req.SourceType]
	if !ok {
		return nil, fmt.Errorf("unsupported source type %q", req.SourceType)
	}

	doc, err := parser.Parse(ctx, req.FilePath)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotImplemented) {
			uc.logger.Info("source parser not implemented",
				"source_type", string(req.SourceType), "file", req.FilePath)
			return &domain.PipelineResult{JobID: req.JobID, Outcome: domain.OutcomeNotImplemented}, nil
		}
		return nil, fmt.Errorf("parse %s source: %w", req.SourceType, err)
	}

	analysis := uc.analyzer.Analyze(doc)
	result := &domain.PipelineResult{
		JobID:    req.JobID,
		Outcome:  domain.OutcomeCompleted,
		Document: doc,
		Analysis: analysis,
	}

	uc.persist(ctx, req, doc, analysis)
	return result, nil
}

// persist updates the existing record when a job id is supplied and creates a
// fresh one otherwise. Failures are reported but not raised: only the update
// visibility is lost, the computed payload stays valid.
func (uc *PipelineRunner) persist(
	ctx context.Context,
	req ports.RunRequest,
	doc *domain.NormalizedDocument,
	analysis *domain.AnalysisResult,
) {
	if uc.repo == nil {
		uc.logger.Warn("record store unavailable, pipeline result not persisted", "file", req.FilePath)
		return
	}

	var err error
	if req.JobID != "" {
		err = uc.repo.SaveResults(ctx, req.JobID, doc, analysis)
	} else {
		now := uc.now().UTC()
		err = uc.repo.Create(ctx, &domain.JobRecord{
			ID:              uuid.NewString(),
			FileName:        filepath.Base(req.FilePath),
			SourceType:      req.SourceType,
			FileURL:         req.FilePath,
			Status:          domain.StatusCompleted,
			ParsedData:      doc,
			AnalysisPayload: analysis,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	if err != nil {
		uc.logger.Warn("persist pipeline result failed",
			"job_id", req.JobID, "file", req.FilePath, "error", err)
	}
}
