package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/retell/internal/domain"
)

func (p *Pipeline) rewrite(ctx context.Context, jobID string) error {
	var transcript domain.TranscriptRecord
	if err := p.readJSON(jobID, domain.ArtifactTranscript, &transcript); err != nil {
		return err
	}
	profile, err := p.readProfile(jobID)
	if err != nil {
		return err
	}

	rewritten, method, err := p.adapt(ctx, jobID, transcript.Text, profile)
	if err != nil {
		return err
	}

	return p.writeJSON(jobID, domain.ArtifactRewrittenTranscript, domain.RewrittenTranscript{
		JobID:     jobID,
		Original:  transcript.Text,
		Rewritten: rewritten,
		Method:    method,
		Timestamp: p.now(),
	})
}

func (p *Pipeline) adapt(ctx context.Context, jobID, text string, profile domain.AudienceProfile) (string, domain.RewriteMethod, error) {
	if p.rewriter == nil {
		p.logger.Warn("rewrite.fallback", "job_id", jobID, "reason", "rewriter not configured")
		return FallbackRewrite(text, profile), domain.RewriteByFallback, nil
	}

	out, err := p.rewriter.Rewrite(ctx, SystemPrompt(profile), UserPrompt(text))
	if err != nil {
		if canceled(ctx, err) {
			return "", "", err
		}
		p.logger.Warn("rewrite.fallback", "job_id", jobID, "reason", err.Error())
		return FallbackRewrite(text, profile), domain.RewriteByFallback, nil
	}
	out = strings.TrimSpace(out)
	if out == "" {
		p.logger.Warn("rewrite.fallback", "job_id", jobID, "reason", "empty model response")
		return FallbackRewrite(text, profile), domain.RewriteByFallback, nil
	}
	return out, domain.RewriteByModel, nil
}

// SystemPrompt embeds the audience profile and the adaptation principles.
func SystemPrompt(p domain.AudienceProfile) string {
	interests := p.Interests
	if interests == "" {
		interests = "general"
	}
	age := p.Age
	if age == "" {
		age = string(p.TargetAgeGroup)
	}

	return fmt.Sprintf(`You are an expert content adaptor. Rewrite video transcripts to match a specific audience while keeping the core message and meaning.

Key adaptation principles:
- Adjust vocabulary complexity to the education and technical level
- Use the audience's interests as metaphors where it helps understanding
- Use age-appropriate language and concepts
- Keep the original structure and flow
- Keep the same length and pacing so the narration still fits the video

Audience profile:
- Age: %s (%s)
- Education: %s
- Interests: %s
- Technical level: %s
- Language: %s

Respond with the rewritten transcript only, without commentary.`,
		age, p.TargetAgeGroup, p.EducationLevel, interests, p.ComplexityLevel, p.LanguageCode)
}

func UserPrompt(text string) string {
	return fmt.Sprintf("Original transcript: \"%s\"", text)
}
