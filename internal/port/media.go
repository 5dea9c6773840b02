package port

import (
	"context"

	"github.com/bnema/retell/internal/domain"
)

// MediaTool is the media extraction, cut and mux capability.
type MediaTool interface {
	ExtractAudio(ctx context.Context, videoPath, outPath string) error
	ExtractSegment(ctx context.Context, videoPath, outPath string, start, duration float64) error
	Concat(ctx context.Context, inputs []string, outPath string) error
	ReplaceAudio(ctx context.Context, videoPath, audioPath, outPath string) error
	MixAudio(ctx context.Context, videoPath, narrationPath, musicPath, outPath string, musicVolume float64) error
	Probe(ctx context.Context, path string) (*domain.ProbeResult, error)
}
