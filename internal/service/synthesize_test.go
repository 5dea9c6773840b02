package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/infrastructure/wav"
	"github.com/bnema/retell/internal/port/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFallbackNarration(t *testing.T) {
	tests := []struct {
		text    string
		seconds float64
	}{
		{"", 0},
		{"hi", 0.2},
		{"¡Hola, niños!", 1.3},
		{strings.Repeat("a", 100), 10},
		{strings.Repeat("a", 5000), 10},
	}
	for _, tt := range tests {
		h, err := wav.Parse(FallbackNarration(tt.text))
		require.NoError(t, err, "text len %d", len(tt.text))
		assert.InDelta(t, tt.seconds, h.Seconds(), 0.001)
		assert.Equal(t, uint16(1), h.Channels)
		assert.Equal(t, uint32(toneSampleRate), h.SampleRate)
	}
}

func TestPipeline_Speak(t *testing.T) {
	profile := domain.Normalize(domain.RawAudience{Age: "40", Language: "en", TechnicalLevel: "intermediate"})
	good := wav.Encode(wav.Tone(220, 0.1, 24000, 0.4), 24000, 1)

	t.Run("retries a rejected voice once with the default", func(t *testing.T) {
		f := newFixture(t)
		tts := mocks.NewTextToSpeechMock(t)
		tts.EXPECT().Synthesize(mock.Anything, "hello", mock.MatchedBy(func(v domain.Voice) bool {
			return v.Name == "en-US-GuyNeural"
		})).Return(nil, domain.ErrVoiceNotFound).Once()
		tts.EXPECT().Synthesize(mock.Anything, "hello", mock.MatchedBy(func(v domain.Voice) bool {
			return v.Name == FallbackVoice && v.Language == domain.DefaultLanguageCode
		})).Return(good, nil).Once()

		deps := f.deps()
		deps.TTS = tts
		audio, err := NewPipeline(deps, PipelineConfig{}).speak(context.Background(), "job-1", "hello", profile)
		require.NoError(t, err)
		assert.Equal(t, good, audio)
	})

	t.Run("falls back to a tone on service errors", func(t *testing.T) {
		f := newFixture(t)
		tts := mocks.NewTextToSpeechMock(t)
		tts.EXPECT().Synthesize(mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("503"))

		deps := f.deps()
		deps.TTS = tts
		audio, err := NewPipeline(deps, PipelineConfig{}).speak(context.Background(), "job-1", "hello", profile)
		require.NoError(t, err)
		assert.Equal(t, FallbackNarration("hello"), audio)
	})

	t.Run("falls back when the service returns junk", func(t *testing.T) {
		f := newFixture(t)
		tts := mocks.NewTextToSpeechMock(t)
		tts.EXPECT().Synthesize(mock.Anything, mock.Anything, mock.Anything).Return([]byte("ID3 mp3 bytes"), nil)

		deps := f.deps()
		deps.TTS = tts
		audio, err := NewPipeline(deps, PipelineConfig{}).speak(context.Background(), "job-1", "hello", profile)
		require.NoError(t, err)
		assert.Equal(t, FallbackNarration("hello"), audio)
	})

	t.Run("cancellation is not masked", func(t *testing.T) {
		f := newFixture(t)
		tts := mocks.NewTextToSpeechMock(t)
		tts.EXPECT().Synthesize(mock.Anything, mock.Anything, mock.Anything).Return(nil, context.Canceled)

		deps := f.deps()
		deps.TTS = tts
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewPipeline(deps, PipelineConfig{}).speak(ctx, "job-1", "hello", profile)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
