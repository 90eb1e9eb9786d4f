package domain

import "time"

type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// Terminal reports whether a status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type SourceType string

const (
	SourceExcel SourceType = "EXCEL"
	SourcePDF   SourceType = "PDF"
)

func ParseSourceType(raw string) (SourceType, bool) {
	switch SourceType(raw) {
	case SourceExcel:
		return SourceExcel, true
	case SourcePDF:
		return SourcePDF, true
	}
	return "", false
}

// JobRecord is the persisted unit of work tracked through the
// PENDING/PROCESSING/COMPLETED/FAILED lifecycle.
type JobRecord struct {
	ID              string              `json:"id"`
	FileName        string              `json:"file_name"`
	SourceType      SourceType          `json:"source_type"`
	FileURL         string              `json:"file_url"`
	Status          JobStatus           `json:"status"`
	Error           string              `json:"error,omitempty"`
	ParsedData      *NormalizedDocument `json:"parsed_data,omitempty"`
	AnalysisPayload *AnalysisResult     `json:"analysis_payload,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type PipelineOutcome string

const (
	OutcomeCompleted      PipelineOutcome = "COMPLETED"
	OutcomeNotImplemented PipelineOutcome = "NOT_IMPLEMENTED"
)

// PipelineResult is the value produced by one pipeline run. The payloads are
// owned by the runner until handed to the repository and never mutated after.
type PipelineResult struct {
	JobID    string              `json:"job_id,omitempty"`
	Outcome  PipelineOutcome     `json:"outcome"`
	Document *NormalizedDocument `json:"parsed_data,omitempty"`
	Analysis *AnalysisResult     `json:"analysis_payload,omitempty"`
}

// JobEvent is published on terminal status transitions.
type JobEvent struct {
	JobID      string          `json:"job_id"`
	Status     JobStatus       `json:"status"`
	Outcome    PipelineOutcome `json:"outcome,omitempty"`
	Error      string          `json:"error,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}
