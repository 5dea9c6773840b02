package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/infrastructure/wav"
)

// transcribe writes the original transcript. An existing transcript is kept
// unless the run forces transcription.
func (p *Pipeline) transcribe(ctx context.Context, jobID string, opts domain.RunOptions) error {
	if !opts.ForceTranscribe {
		ok, err := p.store.Exists(jobID, domain.ArtifactTranscript)
		if err != nil {
			return err
		}
		if ok {
			p.logger.Info("transcribe.reuse", "job_id", jobID)
			return nil
		}
	}

	text, source, err := p.recognize(ctx, jobID)
	if err != nil {
		return err
	}

	return p.writeJSON(jobID, domain.ArtifactTranscript, domain.TranscriptRecord{
		JobID:     jobID,
		Text:      text,
		Source:    source,
		Timestamp: p.now(),
	})
}

func (p *Pipeline) recognize(ctx context.Context, jobID string) (string, domain.TranscriptSource, error) {
	placeholder := func(reason string) (string, domain.TranscriptSource, error) {
		p.logger.Warn("transcribe.placeholder", "job_id", jobID, "reason", reason)
		return domain.PlaceholderTranscript, domain.TranscriptFromPlaceholder, nil
	}

	if p.stt == nil {
		return placeholder("speech-to-text not configured")
	}

	src, err := p.store.ArtifactPath(jobID, domain.ArtifactSourceVideo)
	if err != nil {
		return "", "", err
	}

	if probe, err := p.media.Probe(ctx, src); err != nil {
		p.logger.Debug("transcribe.probe_failed", "job_id", jobID, "error", err)
	} else if probe.AudioStream() == nil {
		return placeholder("source has no audio stream")
	}

	work, err := p.store.WorkDir(jobID)
	if err != nil {
		return "", "", err
	}
	audioPath := filepath.Join(work, "audio-16k.wav")
	defer os.Remove(audioPath) //nolint:errcheck

	if err := p.media.ExtractAudio(ctx, src, audioPath); err != nil {
		return "", "", fmt.Errorf("extract audio: %w", err)
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", "", fmt.Errorf("read extracted audio: %w", err)
	}
	info, err := wav.Inspect(audio)
	if err != nil {
		return "", "", domain.Malformed("extracted audio", err)
	}
	if len(info.Payload) == 0 {
		return placeholder("extracted audio is empty")
	}

	text, err := p.stt.Transcribe(ctx, audio, p.cfg.STTLanguage)
	if err != nil {
		if canceled(ctx, err) {
			return "", "", err
		}
		if errors.Is(err, domain.ErrEmptyResult) {
			return placeholder("no speech recognized")
		}
		return placeholder("speech-to-text failed: " + err.Error())
	}
	if text == "" {
		return placeholder("no speech recognized")
	}
	return text, domain.TranscriptFromSpeech, nil
}
