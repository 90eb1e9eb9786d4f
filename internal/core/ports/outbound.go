package ports

import (
	"context"
	"io"
	"time"

	"github.com/finsight-cl/finsight/internal/core/domain"
)

// JobRepository persists and reads job record state.
type JobRepository interface {
	Create(ctx context.Context, job *domain.JobRecord) error
	GetByID(ctx context.Context, id string) (*domain.JobRecord, error)
	ListPending(ctx context.Context) ([]domain.JobRecord, error)
	ListRecent(ctx context.Context, limit int) ([]domain.JobRecord, error)
	// Claim transitions id from PENDING to PROCESSING. It reports false when
	// the record was not PENDING anymore, without error.
	Claim(ctx context.Context, id string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus, errMessage string) error
	SaveResults(ctx context.Context, id string, doc *domain.NormalizedDocument, analysis *domain.AnalysisResult) error
}

// ObjectStorage stores source documents under bucket-relative keys.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// EventPublisher notifies consumers of terminal job transitions.
type EventPublisher interface {
	PublishJobFinished(ctx context.Context, event domain.JobEvent) error
}

// SourceParser converts one source file into the canonical schema.
// Partial implementations return domain.ErrNotImplemented.
type SourceParser interface {
	Parse(ctx context.Context, filePath string) (*domain.NormalizedDocument, error)
}

// Clock abstracts time so the worker poll loop can be single-stepped in tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err in that case.
	Sleep(ctx context.Context, d time.Duration) error
}
