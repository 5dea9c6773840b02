package service

import (
	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/infrastructure/logger"
)

func (p *Pipeline) normalize(jobID string) error {
	var raw domain.RawAudience
	if err := p.readJSON(jobID, domain.ArtifactRawAudience, &raw); err != nil {
		return err
	}

	profile := domain.Normalize(raw)
	p.logger.Debug("normalize.profile",
		"job_id", jobID,
		"age_group", profile.TargetAgeGroup,
		"complexity", profile.ComplexityLevel,
		"language", profile.LanguageCode,
		logger.Text("interests", profile.Interests),
	)
	return p.writeJSON(jobID, domain.ArtifactNormalizedAudience, profile)
}
