// Package jobs defines the async work queue used to analyze uploaded
// statements off the request path.
package jobs

import (
	"context"
	"time"
)

// JobType identifies the kind of work a job carries.
type JobType string

const (
	// JobTypeAnalyzeStatement analyzes an uploaded statement CSV.
	JobTypeAnalyzeStatement JobType = "analyze_statement"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// AnalyzeStatementJob asks a worker to fetch a statement from GCS, parse
// and categorize its transactions, and persist them to the ledger.
type AnalyzeStatementJob struct {
	JobID string `json:"job_id"`

	// StatementID is the statement record in BigQuery this job feeds.
	StatementID string `json:"statement_id"`

	// GCSURI points at the uploaded CSV.
	GCSURI string `json:"gcs_uri"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

// Job is the generic view the queue machinery works with.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *AnalyzeStatementJob) GetID() string        { return j.JobID }
func (j *AnalyzeStatementJob) GetType() JobType     { return JobTypeAnalyzeStatement }
func (j *AnalyzeStatementJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues jobs. The abstraction leaves room for Cloud Tasks or
// Pub/Sub behind the same API surface.
type Publisher interface {
	PublishAnalyzeStatement(ctx context.Context, job *AnalyzeStatementJob) error
	Close() error
}

// Consumer pulls jobs and hands them to a handler.
type Consumer interface {
	// Start begins consuming. The handler is invoked per job, possibly
	// concurrently.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the job failed and
// eligible for retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state so the API can report progress.
type JobStore interface {
	SaveJob(ctx context.Context, job *AnalyzeStatementJob) error
	GetJob(ctx context.Context, jobID string) (*AnalyzeStatementJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*AnalyzeStatementJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	StatementID string
	Status      JobStatus
	Limit       int
	Offset      int
}
