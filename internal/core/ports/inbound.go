package ports

import (
	"context"
	"io"

	"github.com/finsight-cl/finsight/internal/core/domain"
)

// PipelineRunner sequences parse, analysis and best-effort persistence for
// one input file.
type PipelineRunner interface {
	Run(ctx context.Context, req RunRequest) (*domain.PipelineResult, error)
}

// RunRequest identifies one pipeline invocation. JobID empty means a manual
// run that creates a fresh record instead of updating an existing one.
type RunRequest struct {
	FilePath   string
	SourceType domain.SourceType
	JobID      string
}

// JobIngestor is the inbound contract for job submission.
type JobIngestor interface {
	Submit(ctx context.Context, filename string, sourceType domain.SourceType, body io.Reader) (*domain.JobRecord, error)
}
