package domain

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// RawAudience is the descriptor submitted with an upload. Age arrives either
// as a range string ("5-12", "65+") or a bare number.
type RawAudience struct {
	Age                    string `json:"age"`
	Education              string `json:"education"`
	Interests              string `json:"interests"`
	Language               string `json:"language"`
	TechnicalLevel         string `json:"technicalLevel"`
	IncludeBackgroundMusic bool   `json:"includeBackgroundMusic"`
}

func (r *RawAudience) UnmarshalJSON(data []byte) error {
	type alias RawAudience
	var aux struct {
		alias
		Age json.RawMessage `json:"age"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = RawAudience(aux.alias)

	age := bytes.TrimSpace(aux.Age)
	switch {
	case len(age) == 0 || string(age) == "null":
		r.Age = ""
	case age[0] == '"':
		var s string
		if err := json.Unmarshal(age, &s); err != nil {
			return err
		}
		r.Age = s
	default:
		var n json.Number
		if err := json.Unmarshal(age, &n); err != nil {
			return err
		}
		r.Age = n.String()
	}
	return nil
}

type AgeGroup string

const (
	AgeChildren    AgeGroup = "children"
	AgeTeenagers   AgeGroup = "teenagers"
	AgeYoungAdults AgeGroup = "young-adults"
	AgeAdults      AgeGroup = "adults"
	AgeSeniors     AgeGroup = "seniors"
)

type Complexity string

const (
	ComplexityBeginner     Complexity = "beginner"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
)

type Education string

const (
	EducationElementary Education = "elementary"
	EducationMiddle     Education = "middle"
	EducationHighSchool Education = "high-school"
	EducationBachelors  Education = "bachelors"
	EducationMasters    Education = "masters"
	EducationPhD        Education = "phd"
)

const DefaultLanguageCode = "en-US"

// AudienceProfile is the canonical form every downstream stage reads.
type AudienceProfile struct {
	Age                    string     `json:"age"`
	TargetAgeGroup         AgeGroup   `json:"targetAgeGroup"`
	EducationLevel         Education  `json:"educationLevel"`
	Interests              string     `json:"interests"`
	InterestTokens         []string   `json:"interestTokens"`
	LanguageCode           string     `json:"languageCode"`
	ComplexityLevel        Complexity `json:"complexityLevel"`
	IncludeBackgroundMusic bool       `json:"includeBackgroundMusic"`
}

var languageCodes = map[string]string{
	"en": "en-US",
	"es": "es-ES",
	"fr": "fr-FR",
	"de": "de-DE",
	"zh": "zh-CN",
	"ja": "ja-JP",
	"ko": "ko-KR",
	"pt": "pt-BR",
	"ru": "ru-RU",
	"ar": "ar-SA",
}

var educationAliases = map[string]Education{
	"elementary":  EducationElementary,
	"middle":      EducationMiddle,
	"high-school": EducationHighSchool,
	"highschool":  EducationHighSchool,
	"bachelors":   EducationBachelors,
	"bachelor":    EducationBachelors,
	"masters":     EducationMasters,
	"master":      EducationMasters,
	"phd":         EducationPhD,
	"doctorate":   EducationPhD,
}

var ageGroupNames = map[string]AgeGroup{
	string(AgeChildren):    AgeChildren,
	string(AgeTeenagers):   AgeTeenagers,
	string(AgeYoungAdults): AgeYoungAdults,
	string(AgeAdults):      AgeAdults,
	string(AgeSeniors):     AgeSeniors,
}

var firstNumber = regexp.MustCompile(`\d+`)

// Normalize maps a raw descriptor onto the canonical taxonomy. It never fails
// and is a pure function of its input.
func Normalize(raw RawAudience) AudienceProfile {
	interests := strings.TrimSpace(raw.Interests)
	return AudienceProfile{
		Age:                    strings.TrimSpace(raw.Age),
		TargetAgeGroup:         AgeGroupFor(raw.Age),
		EducationLevel:         EducationFor(raw.Education),
		Interests:              interests,
		InterestTokens:         InterestTokens(interests),
		LanguageCode:           LanguageCodeFor(raw.Language),
		ComplexityLevel:        ComplexityFor(raw.TechnicalLevel),
		IncludeBackgroundMusic: raw.IncludeBackgroundMusic,
	}
}

// Raw projects a profile back onto the raw descriptor shape. Normalizing the
// projection yields the same profile.
func (p AudienceProfile) Raw() RawAudience {
	return RawAudience{
		Age:                    p.Age,
		Education:              string(p.EducationLevel),
		Interests:              p.Interests,
		Language:               p.LanguageCode,
		TechnicalLevel:         string(p.ComplexityLevel),
		IncludeBackgroundMusic: p.IncludeBackgroundMusic,
	}
}

// AgeGroupFor buckets an age value by its first (lower bound) number.
// Values without a number default to adults.
func AgeGroupFor(age string) AgeGroup {
	age = strings.ToLower(strings.TrimSpace(age))
	if g, ok := ageGroupNames[age]; ok {
		return g
	}
	m := firstNumber.FindString(age)
	if m == "" {
		return AgeAdults
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return AgeAdults
	}
	switch {
	case n < 13:
		return AgeChildren
	case n < 18:
		return AgeTeenagers
	case n < 25:
		return AgeYoungAdults
	case n < 65:
		return AgeAdults
	default:
		return AgeSeniors
	}
}

func ComplexityFor(level string) Complexity {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "intermediate":
		return ComplexityIntermediate
	case "advanced", "expert":
		return ComplexityAdvanced
	default:
		return ComplexityBeginner
	}
}

func EducationFor(education string) Education {
	key := strings.ToLower(strings.TrimSpace(education))
	key = strings.ReplaceAll(key, " ", "-")
	key = strings.ReplaceAll(key, "'", "")
	if e, ok := educationAliases[key]; ok {
		return e
	}
	return EducationHighSchool
}

// LanguageCodeFor resolves the primary subtag so that both "en" and "en-GB"
// land on the supported locale.
func LanguageCodeFor(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	if code, ok := languageCodes[lang]; ok {
		return code
	}
	return DefaultLanguageCode
}

func InterestTokens(interests string) []string {
	tokens := []string{}
	for _, part := range strings.Split(interests, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}
