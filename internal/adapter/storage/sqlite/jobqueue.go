package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/port"
)

const jobColumns = `id, status, state, stage, segment, max_segment_seconds, force_transcribe,
	degraded, error_message, attempts, created_at, started_at, completed_at`

const (
	enqueueJob = `INSERT INTO jobs (id, status, state, segment, max_segment_seconds, force_transcribe, created_at)
	VALUES (?, 'pending', 'created', ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		status = 'pending',
		segment = excluded.segment,
		max_segment_seconds = excluded.max_segment_seconds,
		force_transcribe = excluded.force_transcribe,
		error_message = ''
	RETURNING ` + jobColumns

	startJob = `INSERT INTO jobs (id, status, state, segment, max_segment_seconds, force_transcribe, attempts, created_at, started_at)
	VALUES (?, 'running', 'created', ?, ?, ?, 1, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		status = 'running',
		segment = excluded.segment,
		max_segment_seconds = excluded.max_segment_seconds,
		force_transcribe = excluded.force_transcribe,
		attempts = attempts + 1,
		degraded = 0,
		error_message = '',
		started_at = excluded.started_at,
		completed_at = NULL`

	claimNextJob = `UPDATE jobs SET
		status = 'running',
		attempts = attempts + 1,
		degraded = 0,
		error_message = '',
		started_at = ?,
		completed_at = NULL
	WHERE id = (SELECT id FROM jobs WHERE status = 'pending' ORDER BY created_at, id LIMIT 1)
	RETURNING ` + jobColumns

	markState    = `UPDATE jobs SET state = ?, stage = ? WHERE id = ?`
	markDegraded = `UPDATE jobs SET degraded = 1 WHERE id = ?`
	completeJob  = `UPDATE jobs SET status = 'done', state = 'remuxed', completed_at = ? WHERE id = ?`
	failJob      = `UPDATE jobs SET status = 'failed', state = 'failed', stage = ?, error_message = ?, completed_at = ? WHERE id = ?`
	getJob       = `SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`
	listJobs     = `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC, id`
	resetStalled = `UPDATE jobs SET status = 'pending' WHERE status = 'running'`
)

type JobQueue struct {
	db  *sql.DB
	now func() time.Time
}

func NewJobQueue(store *Store) *JobQueue {
	return &JobQueue{
		db:  store.db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (q *JobQueue) Enqueue(jobID string, opts domain.RunOptions) (*domain.Job, error) {
	ctx := context.Background()
	row := q.db.QueryRowContext(ctx, enqueueJob,
		jobID, opts.Segment, opts.MaxSegmentDuration, opts.ForceTranscribe, q.now())
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", jobID, err)
	}
	return job, nil
}

// Claim atomically moves the oldest pending job to running. It returns nil
// when the queue is empty.
func (q *JobQueue) Claim() (*domain.Job, error) {
	ctx := context.Background()
	job, err := scanJob(q.db.QueryRowContext(ctx, claimNextJob, q.now()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// Start records a run that bypasses the queue, as the CLI and single-stage
// re-runs do.
func (q *JobQueue) Start(jobID string, opts domain.RunOptions) error {
	ctx := context.Background()
	now := q.now()
	_, err := q.db.ExecContext(ctx, startJob,
		jobID, opts.Segment, opts.MaxSegmentDuration, opts.ForceTranscribe, now, now)
	return err
}

func (q *JobQueue) MarkState(jobID string, state domain.JobState, stage domain.Stage) error {
	return q.exec(markState, string(state), string(stage), jobID)
}

func (q *JobQueue) MarkDegraded(jobID string) error {
	return q.exec(markDegraded, jobID)
}

func (q *JobQueue) Complete(jobID string) error {
	return q.exec(completeJob, q.now(), jobID)
}

func (q *JobQueue) Fail(jobID string, stage domain.Stage, errMsg string) error {
	return q.exec(failJob, string(stage), errMsg, q.now(), jobID)
}

func (q *JobQueue) Get(jobID string) (*domain.Job, error) {
	ctx := context.Background()
	job, err := scanJob(q.db.QueryRowContext(ctx, getJob, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (q *JobQueue) List() ([]*domain.Job, error) {
	ctx := context.Background()
	rows, err := q.db.QueryContext(ctx, listJobs)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ResetStalled requeues jobs left running by a previous process.
func (q *JobQueue) ResetStalled() error {
	_, err := q.db.ExecContext(context.Background(), resetStalled)
	return err
}

// exec runs an update that must touch exactly one job.
func (q *JobQueue) exec(query string, args ...any) error {
	ctx := context.Background()
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*domain.Job, error) {
	var (
		job                      domain.Job
		status, state, stage     string
		segment, force, degraded bool
	)
	err := row.Scan(
		&job.ID,
		&status,
		&state,
		&stage,
		&segment,
		&job.Options.MaxSegmentDuration,
		&force,
		&degraded,
		&job.ErrorMessage,
		&job.Attempts,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	job.State = domain.JobState(state)
	job.Stage = domain.Stage(stage)
	job.Options.Segment = segment
	job.Options.ForceTranscribe = force
	job.Degraded = degraded
	return &job, nil
}

var _ port.JobLedger = (*JobQueue)(nil)
