package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/retell/internal/adapter/storage/jobfs"
	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/infrastructure/wav"
	"github.com/bnema/retell/internal/port/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memLedger is an in-memory port.JobLedger.
type memLedger struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
	now  time.Time
}

func newMemLedger() *memLedger {
	return &memLedger{jobs: map[string]*domain.Job{}, now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (l *memLedger) tick() time.Time {
	l.now = l.now.Add(time.Second)
	return l.now
}

func (l *memLedger) Enqueue(jobID string, opts domain.RunOptions) (*domain.Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	j := &domain.Job{ID: jobID, Status: domain.JobStatusPending, State: domain.StateCreated, Options: opts, CreatedAt: l.tick()}
	l.jobs[jobID] = j
	cp := *j
	return &cp, nil
}

func (l *memLedger) Claim() (*domain.Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var next *domain.Job
	for _, j := range l.jobs {
		if j.Status == domain.JobStatusPending && (next == nil || j.CreatedAt.Before(next.CreatedAt)) {
			next = j
		}
	}
	if next == nil {
		return nil, nil
	}
	next.Status = domain.JobStatusRunning
	next.Attempts++
	next.StartedAt.Time, next.StartedAt.Valid = l.tick(), true
	cp := *next
	return &cp, nil
}

func (l *memLedger) Start(jobID string, opts domain.RunOptions) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	j, ok := l.jobs[jobID]
	if !ok {
		j = &domain.Job{ID: jobID, CreatedAt: l.tick()}
		l.jobs[jobID] = j
	}
	j.Status = domain.JobStatusRunning
	j.Options = opts
	j.Degraded = false
	j.Attempts++
	j.StartedAt.Time, j.StartedAt.Valid = l.tick(), true
	j.CompletedAt.Valid = false
	return nil
}

func (l *memLedger) update(jobID string, fn func(*domain.Job)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	j, ok := l.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	fn(j)
	return nil
}

func (l *memLedger) MarkState(jobID string, state domain.JobState, stage domain.Stage) error {
	return l.update(jobID, func(j *domain.Job) { j.State, j.Stage = state, stage })
}

func (l *memLedger) MarkDegraded(jobID string) error {
	return l.update(jobID, func(j *domain.Job) { j.Degraded = true })
}

func (l *memLedger) Complete(jobID string) error {
	return l.update(jobID, func(j *domain.Job) {
		j.Status, j.State = domain.JobStatusDone, domain.StateRemuxed
		j.CompletedAt.Time, j.CompletedAt.Valid = l.tick(), true
	})
}

func (l *memLedger) Fail(jobID string, stage domain.Stage, errMsg string) error {
	return l.update(jobID, func(j *domain.Job) {
		j.Status, j.State, j.Stage, j.ErrorMessage = domain.JobStatusFailed, domain.StateFailed, stage, errMsg
		j.CompletedAt.Time, j.CompletedAt.Valid = l.tick(), true
	})
}

func (l *memLedger) Get(jobID string) (*domain.Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	j, ok := l.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (l *memLedger) List() ([]*domain.Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*domain.Job, 0, len(l.jobs))
	for _, j := range l.jobs {
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

func (l *memLedger) ResetStalled() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, j := range l.jobs {
		if j.Status == domain.JobStatusRunning {
			j.Status = domain.JobStatusPending
		}
	}
	return nil
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(_ string, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store  *jobfs.Store
	ledger *memLedger
	media  *mocks.MediaToolMock
	events *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := jobfs.NewStore(t.TempDir())
	require.NoError(t, err)
	return &fixture{
		store:  store,
		ledger: newMemLedger(),
		media:  mocks.NewMediaToolMock(t),
		events: &recorder{},
	}
}

func (f *fixture) deps() PipelineDeps {
	return PipelineDeps{
		Store:  f.store,
		Ledger: f.ledger,
		Media:  f.media,
		Events: f.events,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (f *fixture) createJob(t *testing.T, jobID string, audience domain.RawAudience) {
	t.Helper()
	require.NoError(t, f.store.Create(context.Background(), jobID, strings.NewReader("source video"), audience))
	require.NoError(t, f.ledger.Start(jobID, domain.RunOptions{}))
}

// writeOutput makes a mocked ffmpeg call produce its output file.
func writeOutput(content string) func(context.Context, string, string, string) error {
	return func(_ context.Context, _, _, out string) error {
		return os.WriteFile(out, []byte(content), 0600)
	}
}

var basketballKid = domain.RawAudience{
	Age:            "5-12",
	Education:      "elementary",
	Interests:      "basketball",
	Language:       "en",
	TechnicalLevel: "beginner",
}

func TestPipeline_Run_WithoutCollaborators(t *testing.T) {
	f := newFixture(t)
	f.createJob(t, "job-1", basketballKid)
	f.media.EXPECT().ReplaceAudio(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(writeOutput("muxed")).Once()

	p := NewPipeline(f.deps(), PipelineConfig{})
	require.NoError(t, p.Run(context.Background(), "job-1", domain.RunOptions{}))

	var transcript domain.TranscriptRecord
	require.NoError(t, p.readJSON("job-1", domain.ArtifactTranscript, &transcript))
	assert.Equal(t, domain.PlaceholderTranscript, transcript.Text)
	assert.Equal(t, domain.TranscriptFromPlaceholder, transcript.Source)

	var rewritten domain.RewrittenTranscript
	require.NoError(t, p.readJSON("job-1", domain.ArtifactRewrittenTranscript, &rewritten))
	assert.Equal(t, domain.RewriteByFallback, rewritten.Method)
	assert.NotEmpty(t, rewritten.Rewritten)

	narration, err := f.store.ReadArtifact("job-1", domain.ArtifactNarrationAudio)
	require.NoError(t, err)
	h, err := wav.Parse(narration)
	require.NoError(t, err)
	assert.InDelta(t, toneMaxSeconds, h.Seconds(), 0.01)

	video, err := f.store.ReadArtifact("job-1", domain.ArtifactAdaptedVideo)
	require.NoError(t, err)
	assert.Equal(t, "muxed", string(video))

	job, err := f.ledger.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusDone, job.Status)
	assert.Equal(t, domain.StateRemuxed, job.State)
	assert.False(t, job.Degraded)

	_, err = f.store.ReadArtifact("job-1", domain.ArtifactSegments)
	assert.ErrorIs(t, err, domain.ErrNotFound, "segmentation is opt-in")

	types := f.events.types()
	assert.Equal(t, EventCompleted, types[len(types)-1])
}

func TestPipeline_Run_FallbackOnlyIsDeterministic(t *testing.T) {
	f := newFixture(t)
	f.media.EXPECT().ReplaceAudio(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(writeOutput("muxed")).Twice()
	p := NewPipeline(f.deps(), PipelineConfig{})

	var rewrites []string
	var narrations [][]byte
	for _, id := range []string{"job-1", "job-2"} {
		f.createJob(t, id, basketballKid)
		require.NoError(t, p.Run(context.Background(), id, domain.RunOptions{}))

		var rewritten domain.RewrittenTranscript
		require.NoError(t, p.readJSON(id, domain.ArtifactRewrittenTranscript, &rewritten))
		rewrites = append(rewrites, rewritten.Rewritten)

		narration, err := f.store.ReadArtifact(id, domain.ArtifactNarrationAudio)
		require.NoError(t, err)
		_, err = wav.Parse(narration)
		require.NoError(t, err, id)
		narrations = append(narrations, narration)
	}

	assert.NotEmpty(t, rewrites[0])
	assert.Equal(t, rewrites[0], rewrites[1])
	assert.Equal(t, narrations[0], narrations[1])
}

func TestPipeline_Run_BasketballFallback(t *testing.T) {
	f := newFixture(t)
	f.createJob(t, "job-1", basketballKid)
	require.NoError(t, f.store.WriteArtifact("job-1", domain.ArtifactTranscript, mustJSON(t, domain.TranscriptRecord{
		JobID:  "job-1",
		Text:   "The process requires you to accomplish this complex task.",
		Source: domain.TranscriptFromSpeech,
	})))
	f.media.EXPECT().ReplaceAudio(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(writeOutput("muxed")).Once()

	p := NewPipeline(f.deps(), PipelineConfig{})
	require.NoError(t, p.Run(context.Background(), "job-1", domain.RunOptions{}))

	res, err := NewJobService(f.store, f.ledger, p, nil).Result("job-1")
	require.NoError(t, err)
	assert.Equal(t, "The process requires you to accomplish this complex task.", res.OriginalTranscript)
	assert.Equal(t, "The game plan requires you to score this simple drill! 🏀", res.AdaptedTranscript)
	assert.Equal(t, domain.RewriteByFallback, res.RewriteMethod)
	assert.Equal(t, domain.AgeChildren, res.Profile.TargetAgeGroup)
	assert.Equal(t, "basketball", res.Audience.Interests)
	assert.Positive(t, res.ProcessingMs)
}

func TestPipeline_Run_SpeechServices(t *testing.T) {
	f := newFixture(t)
	f.createJob(t, "job-1", domain.RawAudience{Age: "35", Language: "es", TechnicalLevel: "advanced"})

	stt := mocks.NewSpeechToTextMock(t)
	rw := mocks.NewRewriterMock(t)
	tts := mocks.NewTextToSpeechMock(t)

	speech := wav.Encode(wav.Tone(300, 0.5, 16000, 0.5), 16000, 1)
	f.media.EXPECT().Probe(mock.Anything, mock.Anything).
		Return(&domain.ProbeResult{Streams: []domain.ProbeStream{{CodecType: "video"}, {CodecType: "audio"}}}, nil)
	f.media.EXPECT().ExtractAudio(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, _, out string) error {
			return os.WriteFile(out, speech, 0600)
		})
	stt.EXPECT().Transcribe(mock.Anything, speech, "en-US").Return("Hola a todos.", nil)
	rw.EXPECT().Rewrite(mock.Anything, mock.Anything, `Original transcript: "Hola a todos."`).Return("  Saludos cordiales.  ", nil)

	narration := wav.Encode(wav.Tone(200, 0.2, 24000, 0.5), 24000, 1)
	tts.EXPECT().Synthesize(mock.Anything, "Saludos cordiales.", domain.Voice{
		Name: "es-ES-AlvaroNeural", Language: "es-ES", Rate: 1.1, Pitch: 1.0,
	}).Return(narration, nil)
	f.media.EXPECT().ReplaceAudio(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(writeOutput("muxed"))

	deps := f.deps()
	deps.STT, deps.Rewriter, deps.TTS = stt, rw, tts
	p := NewPipeline(deps, PipelineConfig{})
	require.NoError(t, p.Run(context.Background(), "job-1", domain.RunOptions{}))

	var transcript domain.TranscriptRecord
	require.NoError(t, p.readJSON("job-1", domain.ArtifactTranscript, &transcript))
	assert.Equal(t, domain.TranscriptFromSpeech, transcript.Source)

	var rewritten domain.RewrittenTranscript
	require.NoError(t, p.readJSON("job-1", domain.ArtifactRewrittenTranscript, &rewritten))
	assert.Equal(t, "Saludos cordiales.", rewritten.Rewritten)
	assert.Equal(t, domain.RewriteByModel, rewritten.Method)

	stored, err := f.store.ReadArtifact("job-1", domain.ArtifactNarrationAudio)
	require.NoError(t, err)
	assert.Equal(t, narration, stored)
}

func TestPipeline_Transcribe_Placeholders(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture, stt *mocks.SpeechToTextMock)
	}{
		{
			name: "no audio stream",
			setup: func(f *fixture, _ *mocks.SpeechToTextMock) {
				f.media.EXPECT().Probe(mock.Anything, mock.Anything).
					Return(&domain.ProbeResult{Streams: []domain.ProbeStream{{CodecType: "video"}}}, nil)
			},
		},
		{
			name: "empty extracted audio",
			setup: func(f *fixture, _ *mocks.SpeechToTextMock) {
				f.media.EXPECT().Probe(mock.Anything, mock.Anything).Return(nil, errors.New("ffprobe missing"))
				f.media.EXPECT().ExtractAudio(mock.Anything, mock.Anything, mock.Anything).
					RunAndReturn(func(_ context.Context, _, out string) error {
						return os.WriteFile(out, wav.Encode(nil, 16000, 1), 0600)
					})
			},
		},
		{
			name: "service failure",
			setup: func(f *fixture, stt *mocks.SpeechToTextMock) {
				f.media.EXPECT().Probe(mock.Anything, mock.Anything).
					Return(&domain.ProbeResult{Streams: []domain.ProbeStream{{CodecType: "audio"}}}, nil)
				f.media.EXPECT().ExtractAudio(mock.Anything, mock.Anything, mock.Anything).
					RunAndReturn(func(_ context.Context, _, out string) error {
						return os.WriteFile(out, wav.Encode(wav.Tone(440, 0.1, 16000, 0.3), 16000, 1), 0600)
					})
				stt.EXPECT().Transcribe(mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("401 unauthorized"))
			},
		},
		{
			name: "nothing recognized",
			setup: func(f *fixture, stt *mocks.SpeechToTextMock) {
				f.media.EXPECT().Probe(mock.Anything, mock.Anything).
					Return(&domain.ProbeResult{Streams: []domain.ProbeStream{{CodecType: "audio"}}}, nil)
				f.media.EXPECT().ExtractAudio(mock.Anything, mock.Anything, mock.Anything).
					RunAndReturn(func(_ context.Context, _, out string) error {
						return os.WriteFile(out, wav.Encode(wav.Tone(440, 0.1, 16000, 0.3), 16000, 1), 0600)
					})
				stt.EXPECT().Transcribe(mock.Anything, mock.Anything, mock.Anything).Return("", domain.ErrEmptyResult)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.createJob(t, "job-1", basketballKid)
			stt := mocks.NewSpeechToTextMock(t)
			tt.setup(f, stt)

			deps := f.deps()
			deps.STT = stt
			p := NewPipeline(deps, PipelineConfig{})
			require.NoError(t, p.RunStage(context.Background(), "job-1", domain.StageTranscribe, domain.RunOptions{}))

			var transcript domain.TranscriptRecord
			require.NoError(t, p.readJSON("job-1", domain.ArtifactTranscript, &transcript))
			assert.Equal(t, domain.PlaceholderTranscript, transcript.Text)
			assert.Equal(t, domain.TranscriptFromPlaceholder, transcript.Source)
		})
	}
}

func TestPipeline_Run_ExtractionFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.createJob(t, "job-1", basketballKid)
	stt := mocks.NewSpeechToTextMock(t)
	f.media.EXPECT().Probe(mock.Anything, mock.Anything).
		Return(&domain.ProbeResult{Streams: []domain.ProbeStream{{CodecType: "audio"}}}, nil)
	f.media.EXPECT().ExtractAudio(mock.Anything, mock.Anything, mock.Anything).Return(errors.New("moov atom not found"))

	deps := f.deps()
	deps.STT = stt
	p := NewPipeline(deps, PipelineConfig{})
	err := p.Run(context.Background(), "job-1", domain.RunOptions{})
	require.Error(t, err)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageTranscribe, stageErr.Stage)
	assert.Contains(t, err.Error(), "moov atom not found")

	job, err := f.ledger.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, domain.StateFailed, job.State)
	assert.Equal(t, domain.StageTranscribe, job.Stage)

	types := f.events.types()
	assert.Equal(t, EventFailed, types[len(types)-1])

	_, err = NewJobService(f.store, f.ledger, p, nil).Result("job-1")
	assert.ErrorIs(t, err, domain.ErrJobFailed)
}

func TestPipeline_Run_Segmented(t *testing.T) {
	f := newFixture(t)
	f.createJob(t, "job-1", basketballKid)
	text := "First sentence here. Second sentence follows. Third one closes it."
	require.NoError(t, f.store.WriteArtifact("job-1", domain.ArtifactTranscript, mustJSON(t, domain.TranscriptRecord{Text: text})))

	f.media.EXPECT().ExtractSegment(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, _, out string, _, _ float64) error {
			return os.WriteFile(out, []byte("clip"), 0600)
		})
	f.media.EXPECT().ReplaceAudio(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(writeOutput("muxed"))

	p := NewPipeline(f.deps(), PipelineConfig{})
	require.NoError(t, p.Run(context.Background(), "job-1", domain.RunOptions{Segment: true, MaxSegmentDuration: 2}))

	var segments []domain.Segment
	require.NoError(t, p.readJSON("job-1", domain.ArtifactSegments, &segments))
	require.Len(t, segments, len(domain.PlanSegments(text, 2)))
	for _, s := range segments {
		assert.FileExists(t, s.FilePath)
	}
	f.media.AssertNumberOfCalls(t, "ExtractSegment", len(segments))
}

func TestPipeline_Remux(t *testing.T) {
	t.Run("degrades to the visual track when muxing fails", func(t *testing.T) {
		f := newFixture(t)
		f.createJob(t, "job-1", basketballKid)
		f.media.EXPECT().ReplaceAudio(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("ffmpeg exploded"))

		p := NewPipeline(f.deps(), PipelineConfig{})
		require.NoError(t, p.Run(context.Background(), "job-1", domain.RunOptions{}))

		video, err := f.store.ReadArtifact("job-1", domain.ArtifactAdaptedVideo)
		require.NoError(t, err)
		assert.Equal(t, "source video", string(video))

		job, err := f.ledger.Get("job-1")
		require.NoError(t, err)
		assert.True(t, job.Degraded)
		assert.Equal(t, domain.JobStatusDone, job.Status)
		assert.Contains(t, f.events.types(), EventDegraded)
	})

	t.Run("mixes music when requested and available", func(t *testing.T) {
		f := newFixture(t)
		audience := basketballKid
		audience.IncludeBackgroundMusic = true
		f.createJob(t, "job-1", audience)

		music := t.TempDir() + "/music.mp3"
		require.NoError(t, os.WriteFile(music, []byte("music"), 0600))
		f.media.EXPECT().MixAudio(mock.Anything, mock.Anything, mock.Anything, music, mock.Anything, 0.4).
			RunAndReturn(func(_ context.Context, _, _, _, out string, _ float64) error {
				return os.WriteFile(out, []byte("mixed"), 0600)
			})

		p := NewPipeline(f.deps(), PipelineConfig{BackgroundMusic: music, MusicVolume: 0.4})
		require.NoError(t, p.Run(context.Background(), "job-1", domain.RunOptions{}))

		video, err := f.store.ReadArtifact("job-1", domain.ArtifactAdaptedVideo)
		require.NoError(t, err)
		assert.Equal(t, "mixed", string(video))
	})

	t.Run("music flag without an asset plays narration only", func(t *testing.T) {
		f := newFixture(t)
		audience := basketballKid
		audience.IncludeBackgroundMusic = true
		f.createJob(t, "job-1", audience)
		f.media.EXPECT().ReplaceAudio(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			RunAndReturn(writeOutput("muxed"))

		p := NewPipeline(f.deps(), PipelineConfig{BackgroundMusic: "/does/not/exist.mp3"})
		require.NoError(t, p.Run(context.Background(), "job-1", domain.RunOptions{}))
	})

	t.Run("missing inputs degrade instead of failing", func(t *testing.T) {
		f := newFixture(t)
		f.createJob(t, "job-1", basketballKid)

		p := NewPipeline(f.deps(), PipelineConfig{})
		require.NoError(t, p.RunStage(context.Background(), "job-1", domain.StageRemux, domain.RunOptions{}))

		video, err := f.store.ReadArtifact("job-1", domain.ArtifactAdaptedVideo)
		require.NoError(t, err)
		assert.Equal(t, "source video", string(video))

		job, err := f.ledger.Get("job-1")
		require.NoError(t, err)
		assert.True(t, job.Degraded)
		assert.Equal(t, domain.JobStatusDone, job.Status)
	})

	t.Run("generated visual falls back to the source", func(t *testing.T) {
		f := newFixture(t)
		f.createJob(t, "job-1", basketballKid)
		gen := mocks.NewVisualGeneratorMock(t)
		gen.EXPECT().Generate(mock.Anything, mock.Anything, mock.Anything).Return(errors.New("quota exceeded"))

		src, err := f.store.ArtifactPath("job-1", domain.ArtifactSourceVideo)
		require.NoError(t, err)
		f.media.EXPECT().ReplaceAudio(mock.Anything, src, mock.Anything, mock.Anything).
			RunAndReturn(writeOutput("muxed"))

		deps := f.deps()
		deps.Visual = gen
		p := NewPipeline(deps, PipelineConfig{VisualSource: VisualGenerated})
		require.NoError(t, p.Run(context.Background(), "job-1", domain.RunOptions{}))
	})
}

func TestPipeline_RunStage(t *testing.T) {
	f := newFixture(t)
	f.createJob(t, "job-1", basketballKid)
	p := NewPipeline(f.deps(), PipelineConfig{})

	assert.ErrorIs(t, p.RunStage(context.Background(), "job-1", domain.Stage("dance"), domain.RunOptions{}), domain.ErrUnknownStage)

	err := p.RunStage(context.Background(), "job-1", domain.StageRewrite, domain.RunOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound, "rewrite needs the transcript first")

	require.NoError(t, p.RunStage(context.Background(), "job-1", domain.StageNormalize, domain.RunOptions{}))
	profile, err := p.readProfile("job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Normalize(basketballKid), profile)
}

func TestPipeline_Run_Cancelled(t *testing.T) {
	f := newFixture(t)
	f.createJob(t, "job-1", basketballKid)
	p := NewPipeline(f.deps(), PipelineConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Run(ctx, "job-1", domain.RunOptions{})
	assert.ErrorIs(t, err, context.Canceled)

	job, err := f.ledger.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRunning, job.Status, "an interrupted run is requeued, not failed")
	assert.Empty(t, job.ErrorMessage)
	assert.NotContains(t, f.events.types(), EventFailed)
}

func TestPipeline_Run_TimedOut(t *testing.T) {
	f := newFixture(t)
	f.createJob(t, "job-1", basketballKid)
	p := NewPipeline(f.deps(), PipelineConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	err := p.Run(ctx, "job-1", domain.RunOptions{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	job, err := f.ledger.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
