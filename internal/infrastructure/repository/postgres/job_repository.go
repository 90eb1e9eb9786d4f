package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/finsight-cl/finsight/internal/core/domain"
)

// JobRepository persists financial_records, the job table the worker polls.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *JobRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS financial_records (
	id TEXT PRIMARY KEY,
	file_name TEXT NOT NULL,
	source_type TEXT NOT NULL,
	file_url TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	parsed_data JSONB,
	analysis_payload JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_financial_records_status ON financial_records(status);
CREATE INDEX IF NOT EXISTS idx_financial_records_created_at ON financial_records(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *JobRepository) Create(ctx context.Context, job *domain.JobRecord) error {
	parsedJSON, analysisJSON, err := marshalPayloads(job.ParsedData, job.AnalysisPayload)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO financial_records (
	id, file_name, source_type, file_url, status, error_message, parsed_data, analysis_payload, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		job.ID, job.FileName, string(job.SourceType), job.FileURL, string(job.Status), job.Error,
		parsedJSON, analysisJSON, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job record: %w", err)
	}
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.JobRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, file_name, source_type, file_url, status, error_message, parsed_data, analysis_payload, created_at, updated_at
FROM financial_records
WHERE id = $1
`, id)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "get job by id", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan job record: %w", err)
	}
	return job, nil
}

func (r *JobRepository) ListPending(ctx context.Context) ([]domain.JobRecord, error) {
	return r.list(ctx, `
SELECT id, file_name, source_type, file_url, status, error_message, parsed_data, analysis_payload, created_at, updated_at
FROM financial_records
WHERE status = $1
ORDER BY created_at ASC
`, string(domain.StatusPending))
}

func (r *JobRepository) ListRecent(ctx context.Context, limit int) ([]domain.JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, `
SELECT id, file_name, source_type, file_url, status, error_message, parsed_data, analysis_payload, created_at, updated_at
FROM financial_records
ORDER BY created_at DESC
LIMIT $1
`, limit)
}

// Claim is the atomic PENDING -> PROCESSING transition. The conditional
// update closes the race window between selecting the pending set and
// claiming one record.
func (r *JobRepository) Claim(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
UPDATE financial_records
SET status = $2, updated_at = $3
WHERE id = $1 AND status = $4
`, id, string(domain.StatusProcessing), time.Now().UTC(), string(domain.StatusPending))
	if err != nil {
		return false, fmt.Errorf("claim job record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *JobRepository) UpdateStatus(ctx context.Context, id string, status domain.JobStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE financial_records
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrJobNotFound, "update job status", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *JobRepository) SaveResults(ctx context.Context, id string, doc *domain.NormalizedDocument, analysis *domain.AnalysisResult) error {
	parsedJSON, analysisJSON, err := marshalPayloads(doc, analysis)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE financial_records
SET parsed_data = $2, analysis_payload = $3, updated_at = $4
WHERE id = $1
`, id, parsedJSON, analysisJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save job results: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save results rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrJobNotFound, "save job results", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *JobRepository) list(ctx context.Context, query string, args ...any) ([]domain.JobRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list job records: %w", err)
	}
	defer rows.Close()

	out := make([]domain.JobRecord, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job record: %w", err)
		}
		out = append(out, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job records: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.JobRecord, error) {
	var job domain.JobRecord
	var sourceType, status string
	var parsedRaw, analysisRaw []byte

	err := row.Scan(
		&job.ID, &job.FileName, &sourceType, &job.FileURL, &status, &job.Error,
		&parsedRaw, &analysisRaw, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.SourceType = domain.SourceType(sourceType)
	job.Status = domain.JobStatus(status)

	if len(parsedRaw) > 0 {
		job.ParsedData = &domain.NormalizedDocument{}
		if err := json.Unmarshal(parsedRaw, job.ParsedData); err != nil {
			return nil, fmt.Errorf("unmarshal parsed_data: %w", err)
		}
	}
	if len(analysisRaw) > 0 {
		job.AnalysisPayload = &domain.AnalysisResult{}
		if err := json.Unmarshal(analysisRaw, job.AnalysisPayload); err != nil {
			return nil, fmt.Errorf("unmarshal analysis_payload: %w", err)
		}
	}
	return &job, nil
}

func marshalPayloads(doc *domain.NormalizedDocument, analysis *domain.AnalysisResult) ([]byte, []byte, error) {
	var parsedJSON, analysisJSON []byte
	var err error
	if doc != nil {
		if parsedJSON, err = json.Marshal(doc); err != nil {
			return nil, nil, fmt.Errorf("marshal parsed_data: %w", err)
		}
	}
	if analysis != nil {
		if analysisJSON, err = json.Marshal(analysis); err != nil {
			return nil, nil, fmt.Errorf("marshal analysis_payload: %w", err)
		}
	}
	return parsedJSON, analysisJSON, nil
}
