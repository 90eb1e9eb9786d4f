package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finsight-cl/finsight/internal/core/domain"
	"github.com/finsight-cl/finsight/internal/core/ports"
)

// SubmitJobUseCase stores an uploaded source file and enqueues a PENDING job
// record for the polling worker to discover.
type SubmitJobUseCase struct {
	repo    ports.JobRepository
	storage ports.ObjectStorage
}

func NewSubmitJobUseCase(repo ports.JobRepository, storage ports.ObjectStorage) *SubmitJobUseCase {
	return &SubmitJobUseCase{repo: repo, storage: storage}
}

func (uc *SubmitJobUseCase) Submit(
	ctx context.Context,
	filename string,
	sourceType domain.SourceType,
	body io.Reader,
) (*domain.JobRecord, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save source file: %w", err)
	}

	job := &domain.JobRecord{
		ID:         id,
		FileName:   filename,
		SourceType: sourceType,
		FileURL:    storageKey,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job record: %w", err)
	}
	return job, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
