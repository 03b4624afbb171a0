// Package jobs defines asynchronous statement-processing work and the queue
// abstractions that carry it. Uploading a statement enqueues a job; a worker
// parses the file and stores the extracted rows so entries can later be
// prepared and created from them.
package jobs

import (
	"context"
	"time"
)

// JobType identifies the kind of work a job carries.
type JobType string

const (
	// JobTypeProcessStatement parses an uploaded statement into rows.
	JobTypeProcessStatement JobType = "process_statement"
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

// ProcessStatementJob asks a worker to parse one uploaded statement.
type ProcessStatementJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// StatementID is the statement row the job processes.
	StatementID int64 `json:"statement_id"`

	// UserID is the statement owner.
	UserID int64 `json:"user_id"`

	// GCSURI points at the uploaded statement file in cloud storage.
	GCSURI string `json:"gcs_uri"`

	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error holds the failure detail when Status is failed or retrying.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is the generic view a queue has of any job type.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ProcessStatementJob) GetID() string        { return j.JobID }
func (j *ProcessStatementJob) GetType() JobType     { return JobTypeProcessStatement }
func (j *ProcessStatementJob) GetStatus() JobStatus { return j.Status }

// Publisher publishes jobs to a queue. The abstraction allows swapping the
// in-memory queue for Cloud Tasks or Pub/Sub without touching callers.
type Publisher interface {
	PublishProcessStatement(ctx context.Context, job *ProcessStatementJob) error
	Close() error
}

// Consumer consumes jobs from a queue and hands them to a handler.
type Consumer interface {
	// Start begins consuming. The handler is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to finish.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the job failed and
// eligible for retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore persists job state so execution can be inspected after the fact.
type JobStore interface {
	SaveJob(ctx context.Context, job *ProcessStatementJob) error
	GetJob(ctx context.Context, jobID string) (*ProcessStatementJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ProcessStatementJob, error)
}

// JobFilter narrows a ListJobs call.
type JobFilter struct {
	// StatementID filters jobs by the statement they process. Zero means any.
	StatementID int64

	// Status filters jobs by status. Empty means any.
	Status JobStatus

	Limit  int
	Offset int
}
