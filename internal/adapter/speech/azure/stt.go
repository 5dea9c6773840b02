package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/port"
)

type recognitionResult struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
}

// Recognizer uses the short-audio recognition endpoint. It expects 16 kHz
// mono PCM, which is what the extraction step produces.
type Recognizer struct {
	client *Client
}

func NewRecognizer(c *Client) *Recognizer {
	return &Recognizer{client: c}
}

func (r *Recognizer) Transcribe(ctx context.Context, wav []byte, language string) (string, error) {
	if language == "" {
		language = domain.DefaultLanguageCode
	}
	q := url.Values{}
	q.Set("language", language)
	q.Set("format", "simple")
	endpoint := r.client.sttBase + "/speech/recognition/conversation/cognitiveservices/v1?" + q.Encode()

	raw, err := r.client.send(ctx, endpoint, wav, map[string]string{
		"Content-Type": "audio/wav; codecs=audio/pcm; samplerate=16000",
		"Accept":       "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("recognize speech: %w", err)
	}

	var res recognitionResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", domain.Malformed("recognition response", err)
	}

	switch res.RecognitionStatus {
	case "Success":
		text := strings.TrimSpace(res.DisplayText)
		if text == "" {
			return "", domain.ErrEmptyResult
		}
		return text, nil
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return "", fmt.Errorf("%w: recognition status %s", domain.ErrEmptyResult, res.RecognitionStatus)
	default:
		return "", fmt.Errorf("recognition status %q", res.RecognitionStatus)
	}
}

var _ port.SpeechToText = (*Recognizer)(nil)
