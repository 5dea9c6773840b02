package service

import (
	"math"

	"github.com/bnema/retell/internal/domain"
)

// FallbackVoice is the voice retried once when the selected one is rejected.
const FallbackVoice = "en-US-JennyNeural"

type voiceEntry struct {
	name  string
	rate  float64
	pitch float64
}

var voiceTable = map[string]map[domain.AgeGroup]voiceEntry{
	"en-US": {
		domain.AgeChildren:    {"en-US-JennyNeural", 0.9, 1.1},
		domain.AgeTeenagers:   {"en-US-JennyNeural", 1.0, 1.0},
		domain.AgeYoungAdults: {"en-US-AriaNeural", 1.0, 1.0},
		domain.AgeAdults:      {"en-US-GuyNeural", 1.0, 1.0},
		domain.AgeSeniors:     {"en-US-GuyNeural", 0.85, 0.95},
	},
	"es-ES": {
		domain.AgeChildren:    {"es-ES-ElviraNeural", 0.9, 1.1},
		domain.AgeTeenagers:   {"es-ES-ElviraNeural", 1.0, 1.0},
		domain.AgeYoungAdults: {"es-ES-ElviraNeural", 1.0, 1.0},
		domain.AgeAdults:      {"es-ES-AlvaroNeural", 1.0, 1.0},
		domain.AgeSeniors:     {"es-ES-AlvaroNeural", 0.85, 0.95},
	},
}

// One neural voice per remaining supported language.
var defaultVoices = map[string]string{
	"fr-FR": "fr-FR-DeniseNeural",
	"de-DE": "de-DE-KatjaNeural",
	"zh-CN": "zh-CN-XiaoxiaoNeural",
	"ja-JP": "ja-JP-NanamiNeural",
	"ko-KR": "ko-KR-SunHiNeural",
	"pt-BR": "pt-BR-FranciscaNeural",
	"ru-RU": "ru-RU-SvetlanaNeural",
	"ar-SA": "ar-SA-ZariyahNeural",
}

var complexityRate = map[domain.Complexity]float64{
	domain.ComplexityBeginner:     0.9,
	domain.ComplexityIntermediate: 1.0,
	domain.ComplexityAdvanced:     1.1,
}

// SelectVoice picks voice identity, rate and pitch for a profile. The age
// group picks the base entry and complexity scales its rate.
func SelectVoice(p domain.AudienceProfile) domain.Voice {
	lang := p.LanguageCode
	entry := voiceEntry{name: FallbackVoice, rate: 1.0, pitch: 1.0}

	if byAge, ok := voiceTable[lang]; ok {
		if e, ok := byAge[p.TargetAgeGroup]; ok {
			entry = e
		} else {
			entry = byAge[domain.AgeAdults]
		}
	} else if name, ok := defaultVoices[lang]; ok {
		entry.name = name
	} else {
		lang = domain.DefaultLanguageCode
	}

	scale, ok := complexityRate[p.ComplexityLevel]
	if !ok {
		scale = 1.0
	}

	return domain.Voice{
		Name:     entry.name,
		Language: lang,
		Rate:     round2(entry.rate * scale),
		Pitch:    entry.pitch,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
