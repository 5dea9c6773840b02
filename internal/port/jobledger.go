package port

import "github.com/bnema/retell/internal/domain"

// JobLedger tracks scheduling and progress of jobs. It never holds artifacts.
type JobLedger interface {
	Enqueue(jobID string, opts domain.RunOptions) (*domain.Job, error)
	Claim() (*domain.Job, error)
	Start(jobID string, opts domain.RunOptions) error
	MarkState(jobID string, state domain.JobState, stage domain.Stage) error
	MarkDegraded(jobID string) error
	Complete(jobID string) error
	Fail(jobID string, stage domain.Stage, errMsg string) error
	Get(jobID string) (*domain.Job, error)
	List() ([]*domain.Job, error)
	ResetStalled() error
}
