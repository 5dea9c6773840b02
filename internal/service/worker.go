package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/port"
)

const (
	idlePoll  = 500 * time.Millisecond
	errorPoll = 2 * time.Second
)

// WorkerPool runs queued jobs from the ledger, one job per worker at a time.
type WorkerPool struct {
	ledger     port.JobLedger
	pipeline   *Pipeline
	workers    int
	jobTimeout time.Duration
	logger     *slog.Logger
	wg         sync.WaitGroup
}

func NewWorkerPool(ledger port.JobLedger, pipeline *Pipeline, workers int, jobTimeout time.Duration, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		ledger:     ledger,
		pipeline:   pipeline,
		workers:    workers,
		jobTimeout: jobTimeout,
		logger:     logger,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	// Jobs left running by a previous process go back to the queue.
	if err := wp.ledger.ResetStalled(); err != nil {
		wp.logger.Error("worker.reset_stalled_failed", "error", err)
	}

	for i := range wp.workers {
		wp.wg.Add(1)
		go wp.runWorker(ctx, i)
	}
	wp.logger.Info("worker.pool.started", "workers", wp.workers)
}

// Wait blocks until every worker has returned after ctx is cancelled.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) runWorker(ctx context.Context, id int) {
	defer wp.wg.Done()
	for {
		select {
		case <-ctx.Done():
			wp.logger.Info("worker.stopped", "worker", id)
			return
		default:
		}

		job, err := wp.ledger.Claim()
		if err != nil {
			wp.logger.Error("worker.claim_failed", "worker", id, "error", err)
			sleep(ctx, errorPoll)
			continue
		}
		if job == nil {
			sleep(ctx, idlePoll)
			continue
		}

		wp.processJob(ctx, id, job)
	}
}

func (wp *WorkerPool) processJob(ctx context.Context, id int, job *domain.Job) {
	runCtx := ctx
	if wp.jobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, wp.jobTimeout)
		defer cancel()
	}

	wp.logger.Info("worker.job.start", "worker", id, "job_id", job.ID, "attempt", job.Attempts)
	if err := wp.pipeline.Run(runCtx, job.ID, job.Options); err != nil {
		wp.logger.Error("worker.job.failed", "worker", id, "job_id", job.ID, "error", err)
		return
	}
	wp.logger.Info("worker.job.done", "worker", id, "job_id", job.ID)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
