// Package jobs defines the upload-to-artifact unit of work and the
// interfaces for queueing it and tracking its status.
package jobs

import (
	"context"
	"errors"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeProcessStatement converts one uploaded statement into a report artifact.
	JobTypeProcessStatement JobType = "process_statement"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing indicates the job is currently being processed.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted indicates the job completed and its artifact is available.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed; Error holds the reason.
	JobStatusFailed JobStatus = "failed"
)

// ProcessStatementJob is one upload-to-artifact processing unit. It is
// created on intake, updated by the pipeline, and reclaimed when the
// artifact expires.
type ProcessStatementJob struct {
	// JobID is the opaque identifier returned to the client.
	JobID string `json:"job_id"`

	// Filename is the original name of the uploaded statement.
	Filename string `json:"filename"`

	// UploadRef locates the uploaded file in the upload store.
	UploadRef string `json:"upload_ref,omitempty"`

	// ArtifactRef locates the generated workbook in the artifact store,
	// set on completion.
	ArtifactRef string `json:"artifact_ref,omitempty"`

	Status JobStatus `json:"status"`

	// TransactionCount and SkippedRows are filled in when extraction
	// finishes; skipped rows/pages are observations, not failures.
	TransactionCount int `json:"transaction_count"`
	SkippedRows      int `json:"skipped_rows"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains the human-readable failure reason if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount and MaxRetries control requeueing on transient failures.
	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ProcessStatementJob) GetID() string { return j.JobID }

// GetType implements the Job interface.
func (j *ProcessStatementJob) GetType() JobType { return JobTypeProcessStatement }

// GetStatus implements the Job interface.
func (j *ProcessStatementJob) GetStatus() JobStatus { return j.Status }

// Publisher defines the interface for publishing jobs to a queue.
// The in-memory queue is the only implementation today; the abstraction
// leaves room for an external broker later.
type Publisher interface {
	// PublishProcessStatement enqueues a statement-processing job.
	PublishProcessStatement(ctx context.Context, job *ProcessStatementJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs; handler is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error marks the attempt failed;
// the queue decides whether to retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore maps job id to job state with a defined lifecycle: created on
// intake, updated by pipeline stages, reclaimed after artifact expiry.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ProcessStatementJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ProcessStatementJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ProcessStatementJob, error)

	// DeleteJob removes a job whose artifact has been reclaimed.
	DeleteJob(ctx context.Context, jobID string) error
}

// PermanentError marks a job failure that must not be retried, such as an
// unsupported upload or a corrupt document.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the queue fails the job without requeueing it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Status filters jobs by status.
	Status JobStatus

	// CompletedBefore filters to jobs completed before the given time,
	// used by the expiry sweep.
	CompletedBefore time.Time

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
