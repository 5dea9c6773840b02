package service

import (
	"context"
	"errors"
	"math"
	"unicode/utf8"

	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/infrastructure/wav"
)

// Fallback tone parameters.
const (
	toneFrequency      = 440.0
	toneAmplitude      = 0.3
	toneSampleRate     = 44100
	toneSecondsPerRune = 0.1
	toneMaxSeconds     = 10.0
)

func (p *Pipeline) synthesize(ctx context.Context, jobID string) error {
	var transcript domain.RewrittenTranscript
	if err := p.readJSON(jobID, domain.ArtifactRewrittenTranscript, &transcript); err != nil {
		return err
	}
	profile, err := p.readProfile(jobID)
	if err != nil {
		return err
	}

	audio, err := p.speak(ctx, jobID, transcript.Rewritten, profile)
	if err != nil {
		return err
	}
	return p.store.WriteArtifact(jobID, domain.ArtifactNarrationAudio, audio)
}

// speak returns a well-formed WAV for text, from the speech service when it
// can and from the tone generator otherwise.
func (p *Pipeline) speak(ctx context.Context, jobID, text string, profile domain.AudienceProfile) ([]byte, error) {
	if p.tts == nil {
		p.logger.Warn("synthesize.fallback", "job_id", jobID, "reason", "text-to-speech not configured")
		return FallbackNarration(text), nil
	}

	voice := SelectVoice(profile)
	audio, err := p.tts.Synthesize(ctx, text, voice)
	if errors.Is(err, domain.ErrVoiceNotFound) {
		p.logger.Warn("synthesize.voice_rejected", "job_id", jobID, "voice", voice.Name)
		voice.Name = FallbackVoice
		voice.Language = domain.DefaultLanguageCode
		audio, err = p.tts.Synthesize(ctx, text, voice)
	}
	if err != nil {
		if canceled(ctx, err) {
			return nil, err
		}
		p.logger.Warn("synthesize.fallback", "job_id", jobID, "reason", err.Error())
		return FallbackNarration(text), nil
	}

	if _, err := wav.Inspect(audio); err != nil {
		p.logger.Warn("synthesize.fallback", "job_id", jobID, "reason", "invalid audio from service: "+err.Error())
		return FallbackNarration(text), nil
	}
	p.logger.Info("synthesize.voice", "job_id", jobID, "voice", voice.Name, "rate", voice.Rate, "pitch", voice.Pitch)
	return audio, nil
}

// FallbackNarration renders a tone whose length follows the text, capped at
// toneMaxSeconds.
func FallbackNarration(text string) []byte {
	seconds := math.Min(float64(utf8.RuneCountInString(text))*toneSecondsPerRune, toneMaxSeconds)
	return wav.Encode(wav.Tone(toneFrequency, seconds, toneSampleRate, toneAmplitude), toneSampleRate, 1)
}
