package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bnema/retell/internal/domain"
)

// rule is a case-insensitive whole-word substitution.
type rule struct {
	re *regexp.Regexp
	to string
}

func rules(pairs ...string) []rule {
	out := make([]rule, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, rule{
			re: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(pairs[i]) + `\b`),
			to: pairs[i+1],
		})
	}
	return out
}

func inverse(pairs []string) []string {
	out := make([]string, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		out[i], out[i+1] = pairs[i+1], pairs[i]
	}
	return out
}

// theme remaps vocabulary onto an interest's metaphors.
type theme struct {
	name     string
	keywords []string
	emoji    string
	rules    []rule
}

var simplifyPairs = []string{
	"complex", "simple",
	"difficult", "easy",
	"advanced", "basic",
	"sophisticated", "straightforward",
	"utilize", "use",
	"demonstrate", "show",
	"approximately", "about",
	"sufficient", "enough",
	"facilitate", "help",
	"commence", "start",
}

var (
	beginnerRules = rules(simplifyPairs...)
	advancedRules = rules(inverse(simplifyPairs)...)

	childrenRules = rules(
		"difficult", "challenging",
		"problem", "puzzle",
		"issue", "situation",
		"complicated", "tricky",
	)

	genericRules = rules(
		"in order to", "to",
		"therefore", "so",
		"however", "but",
		"numerous", "many",
		"assist", "help",
		"obtain", "get",
		"require", "need",
		"requires", "needs",
	)
)

// Themes are tried in order; the first whose keyword appears in the
// interests wins.
var themes = []theme{
	{
		name:     "basketball",
		keywords: []string{"basketball", "nba", "hoops"},
		emoji:    "🏀",
		rules: rules(
			"accomplish", "score",
			"achieve", "score",
			"process", "game plan",
			"strategy", "play",
			"task", "drill",
			"goal", "basket",
			"team", "squad",
			"practice", "shootaround",
			"success", "slam dunk",
		),
	},
	{
		name:     "soccer",
		keywords: []string{"soccer", "football", "futbol"},
		emoji:    "⚽",
		rules: rules(
			"accomplish", "score",
			"achieve", "score",
			"process", "game plan",
			"strategy", "formation",
			"task", "drill",
			"team", "side",
			"success", "golazo",
		),
	},
	{
		name:     "sports",
		keywords: []string{"sport", "baseball", "tennis", "hockey", "running", "fitness", "athlet*"},
		emoji:    "🏆",
		rules: rules(
			"accomplish", "win",
			"achieve", "score",
			"process", "game plan",
			"strategy", "play",
			"goal", "target",
			"task", "training drill",
			"practice", "training",
		),
	},
	{
		name:     "science",
		keywords: []string{"science", "physics", "chemistry", "biology", "space", "astronomy"},
		emoji:    "🔬",
		rules: rules(
			"process", "experiment",
			"idea", "hypothesis",
			"result", "discovery",
			"learn", "discover",
			"tool", "instrument",
			"accomplish", "prove",
		),
	},
	{
		name:     "music",
		keywords: []string{"music", "guitar", "piano", "sing", "singing", "band", "song"},
		emoji:    "🎵",
		rules: rules(
			"process", "rhythm",
			"structure", "melody",
			"team", "band",
			"practice", "rehearsal",
			"step", "beat",
			"accomplish", "nail",
		),
	},
}

var sentenceEnd = regexp.MustCompile(`\.(\s|$)`)

// matchTheme returns the first theme with a keyword among the interest
// words. A keyword matches a whole word or its plural; a trailing "*" makes
// it a prefix.
func matchTheme(interests string) *theme {
	words := strings.FieldsFunc(strings.ToLower(interests), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i := range themes {
		for _, kw := range themes[i].keywords {
			for _, w := range words {
				if keywordMatches(kw, w) {
					return &themes[i]
				}
			}
		}
	}
	return nil
}

func keywordMatches(kw, word string) bool {
	if prefix, ok := strings.CutSuffix(kw, "*"); ok {
		return strings.HasPrefix(word, prefix)
	}
	return word == kw || word == kw+"s" || word == kw+"es"
}

// FallbackRewrite adapts text with the substitution tables alone. It is a
// pure function of its inputs and never returns "" for non-empty text.
func FallbackRewrite(text string, p domain.AudienceProfile) string {
	out := strings.TrimSpace(text)

	switch p.ComplexityLevel {
	case domain.ComplexityAdvanced:
		out = apply(out, advancedRules)
	case domain.ComplexityIntermediate:
	default:
		out = apply(out, beginnerRules)
	}

	if p.TargetAgeGroup == domain.AgeChildren {
		out = apply(out, childrenRules)
	}

	th := matchTheme(p.Interests)
	if th != nil {
		out = apply(out, th.rules)
		out = sentenceEnd.ReplaceAllString(out, "!$1")
		out = strings.TrimSpace(out + " " + th.emoji)
		return out
	}

	if p.ComplexityLevel != domain.ComplexityAdvanced {
		out = apply(out, genericRules)
	}
	out = strings.TrimRight(out, ".")
	if !strings.HasSuffix(out, "!") {
		out += "!"
	}
	return out
}

func apply(text string, rs []rule) string {
	for _, r := range rs {
		to := r.to
		text = r.re.ReplaceAllStringFunc(text, func(m string) string {
			return matchCase(m, to)
		})
	}
	return text
}

// matchCase capitalizes replacement when the matched word was capitalized.
func matchCase(matched, replacement string) string {
	first, _ := utf8.DecodeRuneInString(matched)
	if !unicode.IsUpper(first) {
		return replacement
	}
	r, size := utf8.DecodeRuneInString(replacement)
	return string(unicode.ToUpper(r)) + replacement[size:]
}
