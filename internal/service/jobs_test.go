package service

import (
	"context"
	"strings"
	"testing"

	"github.com/bnema/retell/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(f *fixture) *JobService {
	svc := NewJobService(f.store, f.ledger, NewPipeline(f.deps(), PipelineConfig{}), f.deps().Logger)
	svc.newID = func() string { return "job-fixed" }
	return svc
}

func TestJobService_Submit(t *testing.T) {
	f := newFixture(t)
	svc := newTestService(f)

	id, err := svc.Submit(context.Background(), strings.NewReader("video"), basketballKid, domain.RunOptions{Segment: true})
	require.NoError(t, err)
	assert.Equal(t, "job-fixed", id)

	job, artifacts, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.True(t, job.Options.Segment)
	assert.Equal(t, domain.DefaultMaxSegmentDuration, job.Options.MaxSegmentDuration)
	assert.Len(t, artifacts, 2)

	_, err = svc.Submit(context.Background(), strings.NewReader("video"), basketballKid, domain.RunOptions{})
	assert.ErrorIs(t, err, domain.ErrJobExists)
}

func TestJobService_RunNow(t *testing.T) {
	f := newFixture(t)
	f.media.EXPECT().ReplaceAudio(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(writeOutput("muxed"))
	svc := newTestService(f)

	res, err := svc.RunNow(context.Background(), strings.NewReader("video"), basketballKid, domain.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "job-fixed", res.JobID)
	assert.Equal(t, domain.PlaceholderTranscript, res.OriginalTranscript)
	assert.FileExists(t, res.AdaptedVideo)
	assert.False(t, res.Degraded)

	jobs, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestJobService_Result(t *testing.T) {
	t.Run("unknown job", func(t *testing.T) {
		svc := newTestService(newFixture(t))
		_, err := svc.Result("nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("not ready", func(t *testing.T) {
		f := newFixture(t)
		svc := newTestService(f)
		id, err := svc.Submit(context.Background(), strings.NewReader("video"), basketballKid, domain.RunOptions{})
		require.NoError(t, err)

		_, err = svc.Result(id)
		assert.ErrorIs(t, err, domain.ErrNotReady)
	})

	t.Run("failed", func(t *testing.T) {
		f := newFixture(t)
		svc := newTestService(f)
		id, err := svc.Submit(context.Background(), strings.NewReader("video"), basketballKid, domain.RunOptions{})
		require.NoError(t, err)
		require.NoError(t, f.ledger.Fail(id, domain.StageRemux, "disk full"))

		_, err = svc.Result(id)
		assert.ErrorIs(t, err, domain.ErrJobFailed)
		assert.ErrorContains(t, err, "disk full")
	})
}

func TestJobService_RerunStage(t *testing.T) {
	t.Run("unknown job", func(t *testing.T) {
		svc := newTestService(newFixture(t))
		err := svc.RerunStage(context.Background(), "nope", domain.StageNormalize, false)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("job missing from the ledger is adopted", func(t *testing.T) {
		f := newFixture(t)
		svc := newTestService(f)
		require.NoError(t, f.store.Create(context.Background(), "orphan", strings.NewReader("video"), basketballKid))

		require.NoError(t, svc.RerunStage(context.Background(), "orphan", domain.StageNormalize, false))

		job, err := f.ledger.Get("orphan")
		require.NoError(t, err)
		assert.Equal(t, domain.StateAudienceNormalized, job.State)
		assert.Equal(t, domain.StageNormalize, job.Stage)
	})

	t.Run("forced transcription replaces the transcript", func(t *testing.T) {
		f := newFixture(t)
		svc := newTestService(f)
		f.createJob(t, "job-1", basketballKid)
		require.NoError(t, f.store.WriteArtifact("job-1", domain.ArtifactTranscript, mustJSON(t, domain.TranscriptRecord{Text: "old"})))

		require.NoError(t, svc.RerunStage(context.Background(), "job-1", domain.StageTranscribe, false))
		var rec domain.TranscriptRecord
		require.NoError(t, svc.pipeline.readJSON("job-1", domain.ArtifactTranscript, &rec))
		assert.Equal(t, "old", rec.Text)

		require.NoError(t, svc.RerunStage(context.Background(), "job-1", domain.StageTranscribe, true))
		require.NoError(t, svc.pipeline.readJSON("job-1", domain.ArtifactTranscript, &rec))
		assert.Equal(t, domain.PlaceholderTranscript, rec.Text)
	})
}
