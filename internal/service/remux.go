package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bnema/retell/internal/domain"
)

// remux muxes the narration onto the visual track. When narration is missing
// or muxing fails, the visual track is copied unchanged and the job is
// marked degraded.
func (p *Pipeline) remux(ctx context.Context, jobID string) error {
	profile, err := p.readProfile(jobID)
	if errors.Is(err, domain.ErrNotFound) {
		// Without a profile there is no music request; the mux still runs.
		p.logger.Warn("remux.profile_missing", "job_id", jobID)
		profile, err = domain.Normalize(domain.RawAudience{}), nil
	}
	if err != nil {
		return err
	}
	work, err := p.store.WorkDir(jobID)
	if err != nil {
		return err
	}

	visual, err := p.visualTrack(ctx, jobID, work, profile)
	if err != nil {
		return err
	}
	out := filepath.Join(work, "adapted.mp4")

	muxErr := p.mux(ctx, jobID, visual, out, profile)
	if muxErr == nil {
		return p.store.ImportArtifact(jobID, domain.ArtifactAdaptedVideo, out)
	}
	if canceled(ctx, muxErr) {
		return muxErr
	}

	p.logger.Warn("remux.degraded", "job_id", jobID, "reason", muxErr.Error())
	if err := copyFile(visual, out); err != nil {
		return fmt.Errorf("copy visual track: %w", err)
	}
	if err := p.store.ImportArtifact(jobID, domain.ArtifactAdaptedVideo, out); err != nil {
		return err
	}
	if err := p.ledger.MarkDegraded(jobID); err != nil {
		p.logger.Error("remux.ledger.degraded_error", "job_id", jobID, "error", err)
	}
	p.publish(jobID, Event{Type: EventDegraded, Stage: domain.StageRemux, Message: muxErr.Error()})
	return nil
}

func (p *Pipeline) mux(ctx context.Context, jobID, visual, out string, profile domain.AudienceProfile) error {
	narration, err := p.store.ArtifactPath(jobID, domain.ArtifactNarrationAudio)
	if err != nil {
		return err
	}

	// The job's flag decides; the configured asset only makes it possible.
	if profile.IncludeBackgroundMusic && fileExists(p.cfg.BackgroundMusic) {
		p.logger.Info("remux.mix", "job_id", jobID, "music_volume", p.cfg.MusicVolume)
		return p.media.MixAudio(ctx, visual, narration, p.cfg.BackgroundMusic, out, p.cfg.MusicVolume)
	}
	if profile.IncludeBackgroundMusic {
		p.logger.Warn("remux.music_unavailable", "job_id", jobID)
	}
	return p.media.ReplaceAudio(ctx, visual, narration, out)
}

// visualTrack resolves the configured visual source. Anything that cannot
// be produced falls back to the uploaded video.
func (p *Pipeline) visualTrack(ctx context.Context, jobID, work string, profile domain.AudienceProfile) (string, error) {
	src, err := p.store.ArtifactPath(jobID, domain.ArtifactSourceVideo)
	if err != nil {
		return "", err
	}

	switch p.cfg.VisualSource {
	case VisualSubstitute:
		if fileExists(p.cfg.SubstituteVisual) {
			return p.cfg.SubstituteVisual, nil
		}
		p.logger.Warn("remux.visual.substitute_missing", "job_id", jobID)
	case VisualGenerated:
		if p.visual == nil {
			p.logger.Warn("remux.visual.generator_unavailable", "job_id", jobID)
			break
		}
		out := filepath.Join(work, "generated-visual.mp4")
		if err := p.visual.Generate(ctx, VisualPrompt(profile), out); err != nil {
			if canceled(ctx, err) {
				return "", err
			}
			p.logger.Warn("remux.visual.generate_failed", "job_id", jobID, "error", err)
			break
		}
		return out, nil
	}
	return src, nil
}

// VisualPrompt describes a substitute visual for the audience.
func VisualPrompt(profile domain.AudienceProfile) string {
	subject := profile.Interests
	if subject == "" {
		subject = "learning something new"
	}
	return fmt.Sprintf("A bright, friendly video scene about %s, suitable for %s viewers, no text on screen", subject, profile.TargetAgeGroup)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
