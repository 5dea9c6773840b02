package domain

import "time"

// PlaceholderTranscript stands in for speech-to-text output when the service
// is not configured or returns nothing usable.
const PlaceholderTranscript = "This is a placeholder transcript because speech-to-text is not available for this job. " +
	"Configure AZURE_SPEECH_KEY and AZURE_SPEECH_REGION to transcribe the uploaded video."

type TranscriptSource string

const (
	TranscriptFromSpeech      TranscriptSource = "speech"
	TranscriptFromPlaceholder TranscriptSource = "placeholder"
)

// TranscriptRecord is the stored output of transcription.
type TranscriptRecord struct {
	JobID     string           `json:"jobId"`
	Text      string           `json:"text"`
	Source    TranscriptSource `json:"source"`
	Timestamp time.Time        `json:"timestamp"`
}

type RewriteMethod string

const (
	RewriteByModel    RewriteMethod = "model"
	RewriteByFallback RewriteMethod = "fallback"
)

// RewrittenTranscript keeps the original next to the rewrite it produced.
type RewrittenTranscript struct {
	JobID     string        `json:"jobId"`
	Original  string        `json:"original"`
	Rewritten string        `json:"rewritten"`
	Method    RewriteMethod `json:"method"`
	Timestamp time.Time     `json:"timestamp"`
}
