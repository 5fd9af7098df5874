// Package jobs describes asynchronous sync runs and the queue that executes them.
package jobs

import (
	"context"
	"time"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed. Failed jobs are never retried.
	JobStatusFailed JobStatus = "failed"
)

// Trigger tells what started a sync.
type Trigger string

const (
	TriggerAPI      Trigger = "api"
	TriggerSchedule Trigger = "schedule"
)

// SyncResult summarizes a finished sync.
type SyncResult struct {
	Accounts        int      `json:"accounts"`
	Transactions    int      `json:"transactions"`
	Histories       int      `json:"histories"`
	AccountFailures []string `json:"account_failures,omitempty"`
}

// SyncJob is one run of the portal sync.
type SyncJob struct {
	JobID       string      `json:"job_id"`
	Trigger     Trigger     `json:"trigger"`
	Status      JobStatus   `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Error       string      `json:"error,omitempty"`
	Result      *SyncResult `json:"result,omitempty"`
}

// Publisher enqueues sync jobs.
type Publisher interface {
	PublishSync(ctx context.Context, job *SyncJob) error
	Close() error
}

// Consumer runs queued jobs.
type Consumer interface {
	// Start begins consuming jobs; handler is called for each one.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for the in-flight job.
	Stop(ctx context.Context) error
}

// JobHandler runs a job. It may fill job.Result; a returned error marks the
// job failed.
type JobHandler func(ctx context.Context, job *SyncJob) error

// JobStore keeps job state.
type JobStore interface {
	SaveJob(ctx context.Context, job *SyncJob) error

	// GetJob returns apperrors.ErrNotFound for unknown ids.
	GetJob(ctx context.Context, jobID string) (*SyncJob, error)

	// ListJobs returns jobs newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*SyncJob, error)

	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Status JobStatus
	Limit  int
	Offset int
}
