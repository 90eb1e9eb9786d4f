package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/finsight-cl/finsight/internal/core/domain"
	"github.com/finsight-cl/finsight/internal/core/ports"
)

// WorkerMetrics is the instrumentation surface the worker reports into.
type WorkerMetrics interface {
	CycleCompleted(pending int)
	JobStarted()
	JobFinished(status domain.JobStatus, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) CycleCompleted(int)                          {}
func (noopMetrics) JobStarted()                                 {}
func (noopMetrics) JobFinished(domain.JobStatus, time.Duration) {}

// Worker polls the record store for PENDING jobs and drives each one through
// claim, download, pipeline run and terminal status update. Processing is
// strictly sequential within a cycle; a failing job never blocks the others.
type Worker struct {
	repo         ports.JobRepository
	storage      ports.ObjectStorage
	runner       ports.PipelineRunner
	events       ports.EventPublisher
	clock        ports.Clock
	metrics      WorkerMetrics
	logger       *slog.Logger
	pollInterval time.Duration

	// tempDir overrides the system temp directory; tests point it at a
	// scratch dir to assert cleanup.
	tempDir string
}

func NewWorker(
	repo ports.JobRepository,
	storage ports.ObjectStorage,
	runner ports.PipelineRunner,
	events ports.EventPublisher,
	clock ports.Clock,
	metrics WorkerMetrics,
	logger *slog.Logger,
	pollInterval time.Duration,
) *Worker {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Worker{
		repo:         repo,
		storage:      storage,
		runner:       runner,
		events:       events,
		clock:        clock,
		metrics:      metrics,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

// Run polls until ctx is done: one cycle over the pending set, then a fixed
// sleep. Cycle errors are logged and the loop keeps going.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started", "poll_interval", w.pollInterval.String())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.RunCycle(ctx); err != nil {
			w.logger.Error("poll cycle failed", "error", err)
		}
		if err := w.clock.Sleep(ctx, w.pollInterval); err != nil {
			return err
		}
	}
}

// RunCycle processes every record that is PENDING right now, sequentially.
func (w *Worker) RunCycle(ctx context.Context) error {
	jobs, err := w.repo.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending jobs: %w", err)
	}
	for i := range jobs {
		w.processRecord(ctx, &jobs[i])
	}
	w.metrics.CycleCompleted(len(jobs))
	return nil
}

func (w *Worker) processRecord(ctx context.Context, job *domain.JobRecord) {
	claimed, err := w.repo.Claim(ctx, job.ID)
	if err != nil {
		w.logger.Error("claim job failed", "job_id", job.ID, "error", err)
		return
	}
	if !claimed {
		// Someone else moved it out of PENDING between select and claim.
		w.logger.Debug("job no longer pending, skipping", "job_id", job.ID)
		return
	}

	w.logger.Info("processing job", "job_id", job.ID, "file_name", job.FileName)
	w.metrics.JobStarted()
	start := w.clock.Now()

	result, runErr := w.executeClaimed(ctx, job)

	status := domain.StatusCompleted
	errMessage := ""
	outcome := domain.PipelineOutcome("")
	if runErr != nil {
		status = domain.StatusFailed
		errMessage = runErr.Error()
		w.logger.Error("job failed", "job_id", job.ID, "error", runErr)
	} else {
		outcome = result.Outcome
		w.logger.Info("job completed", "job_id", job.ID, "outcome", string(outcome))
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, status, errMessage); err != nil {
		w.logger.Error("update job status failed", "job_id", job.ID, "status", string(status), "error", err)
	}
	w.metrics.JobFinished(status, w.clock.Now().Sub(start))
	w.publishFinished(ctx, job.ID, status, outcome, errMessage)
}

// executeClaimed materializes the source file into a scoped temp file and
// invokes the pipeline with the job id so results update, not duplicate, the
// record. The temp file is removed on every exit path.
func (w *Worker) executeClaimed(ctx context.Context, job *domain.JobRecord) (*domain.PipelineResult, error) {
	tmpPath, cleanup, err := w.downloadSource(ctx, job)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return w.runner.Run(ctx, ports.RunRequest{
		FilePath:   tmpPath,
		SourceType: job.SourceType,
		JobID:      job.ID,
	})
}

func (w *Worker) downloadSource(ctx context.Context, job *domain.JobRecord) (string, func(), error) {
	tmp, err := os.CreateTemp(w.tempDir, "finsight-*"+filepath.Ext(job.FileName))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			w.logger.Warn("remove temp file failed", "path", tmp.Name(), "error", err)
		}
	}

	reader, err := w.storage.Open(ctx, job.FileURL)
	if err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("download source file %q: %w", job.FileURL, err)
	}
	defer reader.Close()

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("write source file to temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return tmp.Name(), cleanup, nil
}

func (w *Worker) publishFinished(
	ctx context.Context,
	jobID string,
	status domain.JobStatus,
	outcome domain.PipelineOutcome,
	errMessage string,
) {
	if w.events == nil {
		return
	}
	event := domain.JobEvent{
		JobID:      jobID,
		Status:     status,
		Outcome:    outcome,
		Error:      errMessage,
		OccurredAt: w.clock.Now().UTC(),
	}
	if err := w.events.PublishJobFinished(ctx, event); err != nil {
		w.logger.Warn("publish job event failed", "job_id", jobID, "error", err)
	}
}
