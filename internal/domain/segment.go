package domain

import (
	"regexp"
	"strings"
)

const (
	WordsPerMinute            = 150
	DefaultMaxSegmentDuration = 10.0
	adaptationKeywordLimit    = 2
)

// ComplexityKeywords signal a passage that likely needs adapting.
var ComplexityKeywords = []string{
	"complex",
	"difficult",
	"advanced",
	"technical",
	"sophisticated",
	"complicated",
	"challenging",
	"intricate",
	"elaborate",
}

var (
	sentenceBreak   = regexp.MustCompile(`[.!?]+`)
	complexityWords = regexp.MustCompile(`(?i)\b(` + strings.Join(ComplexityKeywords, "|") + `)\b`)
)

// Segment is a run of consecutive sentences. StartTime and EndTime are on the
// segment's own clock, so StartTime is always 0. SourceOffset is the
// estimated position of the segment in the source video.
type Segment struct {
	ID              int      `json:"id"`
	StartTime       float64  `json:"startTime"`
	EndTime         float64  `json:"endTime"`
	Duration        float64  `json:"duration"`
	SourceOffset    float64  `json:"sourceOffset"`
	Sentences       []string `json:"sentences"`
	Content         string   `json:"content"`
	NeedsAdaptation bool     `json:"needsAdaptation"`
	FilePath        string   `json:"filePath,omitempty"`
}

func SplitSentences(text string) []string {
	var sentences []string
	for _, part := range sentenceBreak.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}

// EstimateDuration is the speaking time of a sentence in seconds.
func EstimateDuration(sentence string) float64 {
	words := len(strings.Fields(sentence))
	return float64(words) * 60 / WordsPerMinute
}

// PlanSegments partitions the transcript greedily so that no segment runs
// past maxDuration, unless a single sentence alone does.
func PlanSegments(transcript string, maxDuration float64) []Segment {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxSegmentDuration
	}

	segments := []Segment{}
	var current *Segment
	offset := 0.0

	for _, sentence := range SplitSentences(transcript) {
		d := EstimateDuration(sentence)
		if current != nil && current.Duration+d > maxDuration {
			segments = append(segments, finishSegment(*current))
			offset += current.Duration
			current = nil
		}
		if current == nil {
			current = &Segment{ID: len(segments), SourceOffset: offset}
		}
		current.Sentences = append(current.Sentences, sentence)
		current.Duration += d
		current.EndTime = current.StartTime + current.Duration
	}
	if current != nil {
		segments = append(segments, finishSegment(*current))
	}
	return segments
}

func finishSegment(s Segment) Segment {
	s.Content = strings.Join(s.Sentences, ". ") + "."
	s.NeedsAdaptation = CountComplexityKeywords(s.Content) > adaptationKeywordLimit
	return s
}

// CountComplexityKeywords counts every occurrence, not distinct words.
func CountComplexityKeywords(text string) int {
	return len(complexityWords.FindAllStringIndex(text, -1))
}
