package domain

import (
	"database/sql"
	"time"
)

type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

// Job is the ledger view of one adaptation request. Artifacts live in the
// job store; this only tracks scheduling and progress.
type Job struct {
	ID           string
	Status       JobStatus
	State        JobState
	Stage        Stage
	Options      RunOptions
	Degraded     bool
	ErrorMessage string
	Attempts     int64
	CreatedAt    time.Time
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
}

// Elapsed is the processing time of the last run, zero while unfinished.
func (j *Job) Elapsed() time.Duration {
	if !j.StartedAt.Valid || !j.CompletedAt.Valid {
		return 0
	}
	return j.CompletedAt.Time.Sub(j.StartedAt.Time)
}

// RunOptions are the per-job knobs chosen at upload time.
type RunOptions struct {
	Segment            bool
	MaxSegmentDuration float64
	ForceTranscribe    bool
}

// Result is the completion report handed back to the upload layer.
type Result struct {
	JobID              string          `json:"jobId"`
	AdaptedVideo       string          `json:"adaptedVideo"`
	Degraded           bool            `json:"degraded"`
	OriginalTranscript string          `json:"originalTranscript"`
	AdaptedTranscript  string          `json:"adaptedTranscript"`
	RewriteMethod      RewriteMethod   `json:"rewriteMethod"`
	Audience           RawAudience     `json:"audience"`
	Profile            AudienceProfile `json:"profile"`
	ProcessingTime     time.Duration   `json:"-"`
	ProcessingMs       int64           `json:"processingTimeMs"`
}
