package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/port"
)

// DefaultMusicVolume is the music weight against narration at 1.0.
const DefaultMusicVolume = 0.25

// PipelineConfig is the per-process configuration handed to the stages.
// Asset paths are resolved by the caller; an empty path means the asset is
// unavailable.
type PipelineConfig struct {
	STTLanguage      string
	BackgroundMusic  string
	MusicVolume      float64
	VisualSource     string
	SubstituteVisual string
}

// Visual sources for the remux stage.
const (
	VisualOriginal   = "original"
	VisualSubstitute = "substitute"
	VisualGenerated  = "generated"
)

// PipelineDeps are the collaborators. STT, Rewriter, TTS and Visual may be
// nil, in which case their stage uses its fallback path.
type PipelineDeps struct {
	Store    port.JobStore
	Ledger   port.JobLedger
	Media    port.MediaTool
	STT      port.SpeechToText
	Rewriter port.Rewriter
	TTS      port.TextToSpeech
	Visual   port.VisualGenerator
	Events   EventPublisher
	Logger   *slog.Logger
}

type Pipeline struct {
	store    port.JobStore
	ledger   port.JobLedger
	media    port.MediaTool
	stt      port.SpeechToText
	rewriter port.Rewriter
	tts      port.TextToSpeech
	visual   port.VisualGenerator
	events   EventPublisher
	logger   *slog.Logger
	cfg      PipelineConfig
	now      func() time.Time
}

func NewPipeline(deps PipelineDeps, cfg PipelineConfig) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.MusicVolume <= 0 {
		cfg.MusicVolume = DefaultMusicVolume
	}
	if cfg.STTLanguage == "" {
		cfg.STTLanguage = domain.DefaultLanguageCode
	}
	if cfg.VisualSource == "" {
		cfg.VisualSource = VisualOriginal
	}
	return &Pipeline{
		store:    deps.Store,
		ledger:   deps.Ledger,
		media:    deps.Media,
		stt:      deps.STT,
		rewriter: deps.Rewriter,
		tts:      deps.TTS,
		visual:   deps.Visual,
		events:   deps.Events,
		logger:   deps.Logger,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// plan lists the stages a run executes.
func plan(opts domain.RunOptions) []domain.Stage {
	stages := make([]domain.Stage, 0, len(domain.Stages))
	for _, s := range domain.Stages {
		if s == domain.StageSegment && !opts.Segment {
			continue
		}
		stages = append(stages, s)
	}
	return stages
}

// Run executes every stage of the job in order. The first fatal error stops
// the run, is recorded in the ledger and is returned as *domain.StageError.
func (p *Pipeline) Run(ctx context.Context, jobID string, opts domain.RunOptions) error {
	start := time.Now()
	log := p.logger.With("job_id", jobID)
	log.Info("pipeline.run.start", "segment", opts.Segment, "force_transcribe", opts.ForceTranscribe)

	state := domain.StateCreated
	if err := p.ledger.MarkState(jobID, state, ""); err != nil {
		return fmt.Errorf("job %s: mark state: %w", jobID, err)
	}

	for _, stage := range plan(opts) {
		if err := ctx.Err(); err != nil {
			return p.stop(ctx, jobID, stage, err)
		}
		if err := p.execute(ctx, jobID, stage, opts); err != nil {
			return p.stop(ctx, jobID, stage, err)
		}

		next := stage.Completes()
		if !domain.ValidTransition(state, next) {
			return p.fail(jobID, stage, fmt.Errorf("invalid transition %s -> %s", state, next))
		}
		state = next
		if err := p.ledger.MarkState(jobID, state, stage); err != nil {
			return p.fail(jobID, stage, fmt.Errorf("mark state: %w", err))
		}
	}

	if err := p.ledger.Complete(jobID); err != nil {
		return fmt.Errorf("job %s: complete: %w", jobID, err)
	}
	p.publish(jobID, Event{Type: EventCompleted, State: domain.StateRemuxed})
	log.Info("pipeline.run.done", "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

// RunStage re-runs a single stage against the artifacts already stored,
// overwriting what the stage produces.
func (p *Pipeline) RunStage(ctx context.Context, jobID string, stage domain.Stage, opts domain.RunOptions) error {
	if stage.Completes() == "" {
		return domain.ErrUnknownStage
	}
	if err := p.execute(ctx, jobID, stage, opts); err != nil {
		return p.stop(ctx, jobID, stage, err)
	}
	if err := p.ledger.MarkState(jobID, stage.Completes(), stage); err != nil {
		return fmt.Errorf("job %s: mark state: %w", jobID, err)
	}
	if stage == domain.StageRemux {
		if err := p.ledger.Complete(jobID); err != nil {
			return fmt.Errorf("job %s: complete: %w", jobID, err)
		}
		p.publish(jobID, Event{Type: EventCompleted, State: domain.StateRemuxed})
	}
	return nil
}

func (p *Pipeline) execute(ctx context.Context, jobID string, stage domain.Stage, opts domain.RunOptions) error {
	start := time.Now()
	p.logger.Info("pipeline.stage.start", "job_id", jobID, "stage", stage)
	p.publish(jobID, Event{Type: EventStage, Stage: stage, Status: "started"})

	var err error
	switch stage {
	case domain.StageTranscribe:
		err = p.transcribe(ctx, jobID, opts)
	case domain.StageSegment:
		err = p.segment(ctx, jobID, opts)
	case domain.StageNormalize:
		err = p.normalize(jobID)
	case domain.StageRewrite:
		err = p.rewrite(ctx, jobID)
	case domain.StageSynthesize:
		err = p.synthesize(ctx, jobID)
	case domain.StageRemux:
		err = p.remux(ctx, jobID)
	default:
		err = domain.ErrUnknownStage
	}
	if err != nil {
		return err
	}

	p.logger.Info("pipeline.stage.done",
		"job_id", jobID,
		"stage", stage,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	p.publish(jobID, Event{Type: EventStage, Stage: stage, State: stage.Completes(), Status: "done"})
	return nil
}

// stop ends a run at stage. A run interrupted by cancellation (shutdown,
// Ctrl-C, a dropped client) is not a job failure: the ledger row stays
// running so ResetStalled requeues it. A timeout still fails the job.
func (p *Pipeline) stop(ctx context.Context, jobID string, stage domain.Stage, err error) error {
	if !errors.Is(ctx.Err(), context.Canceled) {
		return p.fail(jobID, stage, err)
	}
	p.logger.Warn("pipeline.run.interrupted", "job_id", jobID, "stage", stage, "error", err)
	if !errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w: %v", context.Canceled, err)
	}
	return &domain.StageError{JobID: jobID, Stage: stage, Err: err}
}

func (p *Pipeline) fail(jobID string, stage domain.Stage, err error) error {
	stageErr := &domain.StageError{JobID: jobID, Stage: stage, Err: err}
	p.logger.Error("pipeline.stage.failed", "job_id", jobID, "stage", stage, "error", err)

	if lerr := p.ledger.Fail(jobID, stage, err.Error()); lerr != nil {
		p.logger.Error("pipeline.ledger.fail_error", "job_id", jobID, "error", lerr)
	}
	p.publish(jobID, Event{Type: EventFailed, Stage: stage, State: domain.StateFailed, Message: err.Error()})
	return stageErr
}

func (p *Pipeline) publish(jobID string, e Event) {
	if p.events == nil {
		return
	}
	e.JobID = jobID
	e.Time = p.now()
	p.events.Publish(jobID, e)
}

// readJSON decodes a stored artifact. Decoding failures are ErrMalformed.
func (p *Pipeline) readJSON(jobID string, kind domain.ArtifactKind, v any) error {
	data, err := p.store.ReadArtifact(jobID, kind)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return domain.Malformed(string(kind)+" is empty", nil)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return domain.Malformed(string(kind), err)
	}
	return nil
}

func (p *Pipeline) writeJSON(jobID string, kind domain.ArtifactKind, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	return p.store.WriteArtifact(jobID, kind, data)
}

func (p *Pipeline) readProfile(jobID string) (domain.AudienceProfile, error) {
	var profile domain.AudienceProfile
	err := p.readJSON(jobID, domain.ArtifactNormalizedAudience, &profile)
	return profile, err
}

// canceled reports whether err is due to the run's context going away, in
// which case fallbacks must not mask it.
func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
