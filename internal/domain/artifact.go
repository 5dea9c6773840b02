package domain

import "time"

type ArtifactKind string

const (
	ArtifactSourceVideo         ArtifactKind = "source-video"
	ArtifactRawAudience         ArtifactKind = "raw-audience"
	ArtifactNormalizedAudience  ArtifactKind = "normalized-audience"
	ArtifactTranscript          ArtifactKind = "transcript"
	ArtifactRewrittenTranscript ArtifactKind = "rewritten-transcript"
	ArtifactSegments            ArtifactKind = "segments"
	ArtifactNarrationAudio      ArtifactKind = "narration-audio"
	ArtifactAdaptedVideo        ArtifactKind = "adapted-video"
)

// ArtifactKinds lists every kind in pipeline production order.
var ArtifactKinds = []ArtifactKind{
	ArtifactSourceVideo,
	ArtifactRawAudience,
	ArtifactTranscript,
	ArtifactSegments,
	ArtifactNormalizedAudience,
	ArtifactRewrittenTranscript,
	ArtifactNarrationAudio,
	ArtifactAdaptedVideo,
}

var artifactFiles = map[ArtifactKind]string{
	ArtifactSourceVideo:         "source.mp4",
	ArtifactRawAudience:         "audience.json",
	ArtifactNormalizedAudience:  "audience-normalized.json",
	ArtifactTranscript:          "transcript.json",
	ArtifactRewrittenTranscript: "transcript-rewritten.json",
	ArtifactSegments:            "segments.json",
	ArtifactNarrationAudio:      "narration.wav",
	ArtifactAdaptedVideo:        "adapted-video.mp4",
}

// ParseArtifactKind validates a kind coming from outside the process.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	k := ArtifactKind(s)
	if _, ok := artifactFiles[k]; !ok {
		return "", ErrUnknownArtifact
	}
	return k, nil
}

// FileName is the on-disk name of the artifact inside its job directory.
func (k ArtifactKind) FileName() string {
	return artifactFiles[k]
}

// Immutable kinds are written once by job creation.
func (k ArtifactKind) Immutable() bool {
	return k == ArtifactSourceVideo || k == ArtifactRawAudience
}

// IsMedia reports whether the artifact holds binary media rather than JSON.
func (k ArtifactKind) IsMedia() bool {
	switch k {
	case ArtifactSourceVideo, ArtifactNarrationAudio, ArtifactAdaptedVideo:
		return true
	}
	return false
}

func (k ArtifactKind) ContentType() string {
	switch k {
	case ArtifactSourceVideo, ArtifactAdaptedVideo:
		return "video/mp4"
	case ArtifactNarrationAudio:
		return "audio/wav"
	default:
		return "application/json"
	}
}

// Artifact describes one stored artifact as listed by the job store.
type Artifact struct {
	Kind      ArtifactKind `json:"kind"`
	File      string       `json:"file"`
	Size      int64        `json:"size"`
	Digest    string       `json:"blake2b,omitempty"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
