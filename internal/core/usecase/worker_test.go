package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/finsight-cl/finsight/internal/core/domain"
	"github.com/finsight-cl/finsight/internal/core/ports"
)

type workerRepoFake struct {
	jobs       map[string]*domain.JobRecord
	order      []string
	listErr    error
	claimErr   error
	claimCalls []string
}

func newWorkerRepoFake(jobs ...*domain.JobRecord) *workerRepoFake {
	f := &workerRepoFake{jobs: map[string]*domain.JobRecord{}}
	for _, job := range jobs {
		f.jobs[job.ID] = job
		f.order = append(f.order, job.ID)
	}
	return f
}

func (f *workerRepoFake) Create(_ context.Context, job *domain.JobRecord) error {
	f.jobs[job.ID] = job
	f.order = append(f.order, job.ID)
	return nil
}

func (f *workerRepoFake) GetByID(_ context.Context, id string) (*domain.JobRecord, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (f *workerRepoFake) ListPending(context.Context) ([]domain.JobRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []domain.JobRecord{}
	for _, id := range f.order {
		if f.jobs[id].Status == domain.StatusPending {
			out = append(out, *f.jobs[id])
		}
	}
	return out, nil
}

func (f *workerRepoFake) ListRecent(context.Context, int) ([]domain.JobRecord, error) {
	return nil, nil
}

func (f *workerRepoFake) Claim(_ context.Context, id string) (bool, error) {
	f.claimCalls = append(f.claimCalls, id)
	if f.claimErr != nil {
		return false, f.claimErr
	}
	job, ok := f.jobs[id]
	if !ok || job.Status != domain.StatusPending {
		return false, nil
	}
	job.Status = domain.StatusProcessing
	return true, nil
}

func (f *workerRepoFake) UpdateStatus(_ context.Context, id string, status domain.JobStatus, errMessage string) error {
	job, ok := f.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.Status = status
	job.Error = errMessage
	return nil
}

func (f *workerRepoFake) SaveResults(context.Context, string, *domain.NormalizedDocument, *domain.AnalysisResult) error {
	return nil
}

type workerStorageFake struct {
	files   map[string][]byte
	openErr error
}

func (f *workerStorageFake) Save(context.Context, string, io.Reader) error { return nil }

func (f *workerStorageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	data, ok := f.files[key]
	if !ok {
		return nil, errors.New("object not found: " + key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type runnerFake struct {
	result   *domain.PipelineResult
	err      error
	requests []ports.RunRequest
	// errFor fails only the listed job ids.
	errFor map[string]error
}

func (f *runnerFake) Run(_ context.Context, req ports.RunRequest) (*domain.PipelineResult, error) {
	f.requests = append(f.requests, req)
	if err, ok := f.errFor[req.JobID]; ok {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.PipelineResult{JobID: req.JobID, Outcome: domain.OutcomeCompleted}, nil
}

type eventsFake struct {
	events []domain.JobEvent
	err    error
}

func (f *eventsFake) PublishJobFinished(_ context.Context, event domain.JobEvent) error {
	f.events = append(f.events, event)
	return f.err
}

// stepClock single-steps poll cycles: it cancels the run context after a
// fixed number of sleeps instead of actually sleeping.
type stepClock struct {
	now    time.Time
	sleeps int
	limit  int
	cancel context.CancelFunc
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) Sleep(ctx context.Context, _ time.Duration) error {
	c.sleeps++
	if c.limit > 0 && c.sleeps >= c.limit && c.cancel != nil {
		c.cancel()
	}
	return ctx.Err()
}

func pendingJob(id, fileName, fileURL string) *domain.JobRecord {
	return &domain.JobRecord{
		ID:         id,
		FileName:   fileName,
		SourceType: domain.SourceExcel,
		FileURL:    fileURL,
		Status:     domain.StatusPending,
	}
}

func newTestWorker(t *testing.T, repo ports.JobRepository, storage ports.ObjectStorage, runner ports.PipelineRunner, events ports.EventPublisher) *Worker {
	t.Helper()
	w := NewWorker(repo, storage, runner, events, &stepClock{now: time.Unix(1718000000, 0)}, nil, nil, time.Second)
	w.tempDir = t.TempDir()
	return w
}

func tempDirEmpty(t *testing.T, dir string) bool {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	return len(entries) == 0
}

func TestWorkerCompletesPendingJob(t *testing.T) {
	repo := newWorkerRepoFake(pendingJob("job-1", "ventas.xlsx", "store/ventas.xlsx"))
	storage := &workerStorageFake{files: map[string][]byte{"store/ventas.xlsx": []byte("payload")}}
	runner := &runnerFake{}
	events := &eventsFake{}
	w := newTestWorker(t, repo, storage, runner, events)

	if err := w.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	job := repo.jobs["job-1"]
	if job.Status != domain.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", job.Status)
	}
	if len(runner.requests) != 1 {
		t.Fatalf("expected one pipeline run, got %d", len(runner.requests))
	}
	req := runner.requests[0]
	if req.JobID != "job-1" || req.SourceType != domain.SourceExcel {
		t.Fatalf("unexpected run request: %+v", req)
	}
	if filepath.Ext(req.FilePath) != ".xlsx" {
		t.Fatalf("temp file should keep the source extension, got %q", req.FilePath)
	}
	if !tempDirEmpty(t, w.tempDir) {
		t.Fatalf("temp file must be removed after success")
	}
	if len(events.events) != 1 || events.events[0].Status != domain.StatusCompleted {
		t.Fatalf("expected completion event, got %+v", events.events)
	}
}

func TestWorkerMarksFailedOnDownloadError(t *testing.T) {
	repo := newWorkerRepoFake(pendingJob("job-1", "ventas.xlsx", "store/missing.xlsx"))
	storage := &workerStorageFake{openErr: errors.New("bucket unreachable")}
	runner := &runnerFake{}
	events := &eventsFake{}
	w := newTestWorker(t, repo, storage, runner, events)

	if err := w.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	job := repo.jobs["job-1"]
	if job.Status != domain.StatusFailed {
		t.Fatalf("expected FAILED, got %s", job.Status)
	}
	if job.Error == "" {
		t.Fatalf("expected recorded error message")
	}
	if len(runner.requests) != 0 {
		t.Fatalf("pipeline must not run when download fails")
	}
	if !tempDirEmpty(t, w.tempDir) {
		t.Fatalf("temp file must be removed after download failure")
	}
	if len(events.events) != 1 || events.events[0].Status != domain.StatusFailed {
		t.Fatalf("expected failure event, got %+v", events.events)
	}
}

func TestWorkerMarksFailedOnPipelineError(t *testing.T) {
	repo := newWorkerRepoFake(pendingJob("job-1", "ventas.xlsx", "store/ventas.xlsx"))
	storage := &workerStorageFake{files: map[string][]byte{"store/ventas.xlsx": []byte("payload")}}
	runner := &runnerFake{err: errors.New("parse failed")}
	w := newTestWorker(t, repo, storage, runner, &eventsFake{})

	if err := w.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	job := repo.jobs["job-1"]
	if job.Status != domain.StatusFailed || job.Error != "parse failed" {
		t.Fatalf("expected FAILED with recorded error, got %+v", job)
	}
	if !tempDirEmpty(t, w.tempDir) {
		t.Fatalf("temp file must be removed after pipeline failure")
	}
}

func TestWorkerIsolatesFailingJobs(t *testing.T) {
	repo := newWorkerRepoFake(
		pendingJob("job-1", "a.xlsx", "store/a.xlsx"),
		pendingJob("job-2", "b.xlsx", "store/b.xlsx"),
	)
	storage := &workerStorageFake{files: map[string][]byte{
		"store/a.xlsx": []byte("a"),
		"store/b.xlsx": []byte("b"),
	}}
	runner := &runnerFake{errFor: map[string]error{"job-1": errors.New("boom")}}
	w := newTestWorker(t, repo, storage, runner, &eventsFake{})

	if err := w.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if repo.jobs["job-1"].Status != domain.StatusFailed {
		t.Fatalf("expected job-1 FAILED, got %s", repo.jobs["job-1"].Status)
	}
	if repo.jobs["job-2"].Status != domain.StatusCompleted {
		t.Fatalf("one failing job must not block the next, got %s", repo.jobs["job-2"].Status)
	}
}

func TestWorkerNeverReclaimsNonPending(t *testing.T) {
	processing := pendingJob("job-1", "a.xlsx", "store/a.xlsx")
	processing.Status = domain.StatusProcessing
	done := pendingJob("job-2", "b.xlsx", "store/b.xlsx")
	done.Status = domain.StatusCompleted
	repo := newWorkerRepoFake(processing, done)
	runner := &runnerFake{}
	w := newTestWorker(t, repo, &workerStorageFake{}, runner, &eventsFake{})

	if err := w.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if len(repo.claimCalls) != 0 {
		t.Fatalf("non-pending records must not be claimed, got %v", repo.claimCalls)
	}
	if len(runner.requests) != 0 {
		t.Fatalf("nothing should run")
	}
}

func TestWorkerSkipsRecordClaimedElsewhere(t *testing.T) {
	job := pendingJob("job-1", "a.xlsx", "store/a.xlsx")
	repo := newWorkerRepoFake(job)
	runner := &runnerFake{}
	w := newTestWorker(t, repo, &workerStorageFake{}, runner, &eventsFake{})

	// Simulate a concurrent claim between select and claim.
	pending, err := repo.ListPending(context.Background())
	if err != nil || len(pending) != 1 {
		t.Fatalf("setup: %v %v", pending, err)
	}
	job.Status = domain.StatusProcessing

	w.processRecord(context.Background(), &pending[0])
	if len(runner.requests) != 0 {
		t.Fatalf("claimed-elsewhere record must be skipped")
	}
	if repo.jobs["job-1"].Status != domain.StatusProcessing {
		t.Fatalf("status must be left alone, got %s", repo.jobs["job-1"].Status)
	}
}

func TestWorkerRunSleepsBetweenCycles(t *testing.T) {
	repo := newWorkerRepoFake()
	ctx, cancel := context.WithCancel(context.Background())
	clock := &stepClock{now: time.Unix(1718000000, 0), limit: 3, cancel: cancel}
	w := NewWorker(repo, &workerStorageFake{}, &runnerFake{}, &eventsFake{}, clock, nil, nil, time.Second)

	err := w.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if clock.sleeps != 3 {
		t.Fatalf("expected 3 sleeps before cancel, got %d", clock.sleeps)
	}
}
