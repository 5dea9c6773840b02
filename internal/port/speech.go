package port

import (
	"context"

	"github.com/bnema/retell/internal/domain"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, wav []byte, language string) (string, error)
}

// TextToSpeech returns a WAV container. An unknown voice is reported as
// domain.ErrVoiceNotFound.
type TextToSpeech interface {
	Synthesize(ctx context.Context, text string, voice domain.Voice) ([]byte, error)
}
