package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/port"
	"github.com/google/uuid"
)

// JobService is the entry point used by the HTTP and CLI layers.
type JobService struct {
	store    port.JobStore
	ledger   port.JobLedger
	pipeline *Pipeline
	logger   *slog.Logger
	newID    func() string
}

func NewJobService(store port.JobStore, ledger port.JobLedger, pipeline *Pipeline, logger *slog.Logger) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{
		store:    store,
		ledger:   ledger,
		pipeline: pipeline,
		logger:   logger,
		newID:    func() string { return uuid.New().String() },
	}
}

// Submit stores the upload and queues the job for the worker pool.
func (s *JobService) Submit(ctx context.Context, video io.Reader, audience domain.RawAudience, opts domain.RunOptions) (string, error) {
	jobID, err := s.create(ctx, video, audience)
	if err != nil {
		return "", err
	}
	if _, err := s.ledger.Enqueue(jobID, normalizeOptions(opts)); err != nil {
		return "", fmt.Errorf("enqueue job %s: %w", jobID, err)
	}
	s.logger.Info("job.submitted", "job_id", jobID, "segment", opts.Segment)
	return jobID, nil
}

// RunNow stores the upload and runs the whole pipeline in the caller's
// goroutine.
func (s *JobService) RunNow(ctx context.Context, video io.Reader, audience domain.RawAudience, opts domain.RunOptions) (*domain.Result, error) {
	jobID, err := s.create(ctx, video, audience)
	if err != nil {
		return nil, err
	}
	opts = normalizeOptions(opts)
	if err := s.ledger.Start(jobID, opts); err != nil {
		return nil, fmt.Errorf("start job %s: %w", jobID, err)
	}
	if err := s.pipeline.Run(ctx, jobID, opts); err != nil {
		return nil, err
	}
	return s.Result(jobID)
}

// RerunStage runs one stage again with the options the job was created with.
func (s *JobService) RerunStage(ctx context.Context, jobID string, stage domain.Stage, force bool) error {
	if ok, err := s.store.Exists(jobID, domain.ArtifactSourceVideo); err != nil {
		return err
	} else if !ok {
		return domain.ErrNotFound
	}

	opts := normalizeOptions(domain.RunOptions{})
	job, err := s.ledger.Get(jobID)
	switch {
	case err == nil:
		opts = normalizeOptions(job.Options)
	case errors.Is(err, domain.ErrNotFound):
		if err := s.ledger.Start(jobID, opts); err != nil {
			return fmt.Errorf("start job %s: %w", jobID, err)
		}
	default:
		return err
	}
	opts.ForceTranscribe = force

	s.logger.Info("job.stage.rerun", "job_id", jobID, "stage", stage, "force", force)
	return s.pipeline.RunStage(ctx, jobID, stage, opts)
}

func (s *JobService) Get(jobID string) (*domain.Job, []domain.Artifact, error) {
	job, err := s.ledger.Get(jobID)
	if err != nil {
		return nil, nil, err
	}
	artifacts, err := s.store.ListArtifacts(jobID)
	if err != nil {
		return nil, nil, err
	}
	return job, artifacts, nil
}

func (s *JobService) List() ([]*domain.Job, error) {
	return s.ledger.List()
}

func (s *JobService) ArtifactPath(jobID string, kind domain.ArtifactKind) (string, error) {
	return s.store.ArtifactPath(jobID, kind)
}

// Result assembles the completion report. It fails with ErrJobFailed when
// the ledger recorded a failure and ErrNotReady until both the adapted video
// and the rewritten transcript exist.
func (s *JobService) Result(jobID string) (*domain.Result, error) {
	job, err := s.ledger.Get(jobID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if job == nil {
		if ok, err := s.store.Exists(jobID, domain.ArtifactSourceVideo); err != nil {
			return nil, err
		} else if !ok {
			return nil, domain.ErrNotFound
		}
	}
	if job != nil && job.Status == domain.JobStatusFailed {
		return nil, fmt.Errorf("%w: stage %s: %s", domain.ErrJobFailed, job.Stage, job.ErrorMessage)
	}

	for _, kind := range []domain.ArtifactKind{domain.ArtifactAdaptedVideo, domain.ArtifactRewrittenTranscript} {
		ok, err := s.store.Exists(jobID, kind)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrNotReady
		}
	}

	var rewritten domain.RewrittenTranscript
	if err := s.pipeline.readJSON(jobID, domain.ArtifactRewrittenTranscript, &rewritten); err != nil {
		return nil, err
	}
	var raw domain.RawAudience
	if err := s.pipeline.readJSON(jobID, domain.ArtifactRawAudience, &raw); err != nil {
		return nil, err
	}
	profile, err := s.pipeline.readProfile(jobID)
	if err != nil {
		return nil, err
	}
	video, err := s.store.ArtifactPath(jobID, domain.ArtifactAdaptedVideo)
	if err != nil {
		return nil, err
	}

	res := &domain.Result{
		JobID:              jobID,
		AdaptedVideo:       video,
		OriginalTranscript: rewritten.Original,
		AdaptedTranscript:  rewritten.Rewritten,
		RewriteMethod:      rewritten.Method,
		Audience:           raw,
		Profile:            profile,
	}
	if job != nil {
		res.Degraded = job.Degraded
		res.ProcessingTime = job.Elapsed()
		res.ProcessingMs = res.ProcessingTime.Milliseconds()
	}
	return res, nil
}

func (s *JobService) create(ctx context.Context, video io.Reader, audience domain.RawAudience) (string, error) {
	jobID := s.newID()
	if err := s.store.Create(ctx, jobID, video, audience); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	return jobID, nil
}

func normalizeOptions(opts domain.RunOptions) domain.RunOptions {
	if opts.MaxSegmentDuration <= 0 {
		opts.MaxSegmentDuration = domain.DefaultMaxSegmentDuration
	}
	return opts
}
