package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bnema/retell/internal/domain"
	"golang.org/x/sync/errgroup"
)

const segmentWorkers = 4

func (p *Pipeline) segment(ctx context.Context, jobID string, opts domain.RunOptions) error {
	var transcript domain.TranscriptRecord
	if err := p.readJSON(jobID, domain.ArtifactTranscript, &transcript); err != nil {
		return err
	}

	segments := domain.PlanSegments(transcript.Text, opts.MaxSegmentDuration)

	src, err := p.store.ArtifactPath(jobID, domain.ArtifactSourceVideo)
	if err != nil {
		return err
	}
	work, err := p.store.WorkDir(jobID)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(segmentWorkers)
	for i := range segments {
		seg := &segments[i]
		g.Go(func() error {
			name := fmt.Sprintf("segment-%d.mp4", seg.ID)
			tmp := filepath.Join(work, name)
			if err := p.media.ExtractSegment(gctx, src, tmp, seg.SourceOffset, seg.Duration); err != nil {
				return fmt.Errorf("segment %d: %w", seg.ID, err)
			}
			path, err := p.store.ImportClip(jobID, name, tmp)
			if err != nil {
				return fmt.Errorf("segment %d: %w", seg.ID, err)
			}
			seg.FilePath = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p.logger.Info("segment.planned", "job_id", jobID, "segments", len(segments))
	return p.writeJSON(jobID, domain.ArtifactSegments, segments)
}
