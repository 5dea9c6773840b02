package service

import (
	"strings"
	"testing"

	"github.com/bnema/retell/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackRewrite(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		audience domain.RawAudience
		want     string
	}{
		{
			name:     "basketball kid",
			text:     "The process requires you to accomplish this complex task.",
			audience: basketballKid,
			want:     "The game plan requires you to score this simple drill! 🏀",
		},
		{
			name:     "children soften problems",
			text:     "This problem is complicated.",
			audience: domain.RawAudience{Age: "8"},
			want:     "This puzzle is tricky!",
		},
		{
			name:     "generic simplification",
			text:     "However, we utilize numerous tools in order to obtain results.",
			audience: domain.RawAudience{Age: "40", TechnicalLevel: "beginner"},
			want:     "But, we use many tools to get results!",
		},
		{
			name:     "advanced raises register",
			text:     "A simple way to use the basic tool.",
			audience: domain.RawAudience{Age: "40", TechnicalLevel: "advanced"},
			want:     "A complex way to utilize the advanced tool!",
		},
		{
			name:     "intermediate keeps vocabulary",
			text:     "A complex idea.",
			audience: domain.RawAudience{Age: "30", TechnicalLevel: "intermediate"},
			want:     "A complex idea!",
		},
		{
			name:     "science theme marks every sentence",
			text:     "Each process has a result. Then we learn.",
			audience: domain.RawAudience{Age: "30", Interests: "space, robots", TechnicalLevel: "intermediate"},
			want:     "Each experiment has a discovery! Then we discover! 🔬",
		},
		{
			name:     "first matching theme wins",
			text:     "Our team met the goal.",
			audience: domain.RawAudience{Age: "30", Interests: "music and basketball", TechnicalLevel: "intermediate"},
			want:     "Our squad met the basket! 🏀",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackRewrite(tt.text, domain.Normalize(tt.audience))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackRewrite_Deterministic(t *testing.T) {
	profile := domain.Normalize(basketballKid)
	text := domain.PlaceholderTranscript
	first := FallbackRewrite(text, profile)
	assert.Equal(t, first, FallbackRewrite(text, profile))
	assert.NotEmpty(t, first)
}

func TestFallbackRewrite_NeverEmpty(t *testing.T) {
	for _, text := range []string{"x", ".", "...", "Hello."} {
		got := FallbackRewrite(text, domain.Normalize(domain.RawAudience{}))
		assert.NotEmpty(t, got, "text %q", text)
		assert.True(t, strings.HasSuffix(got, "!"), "text %q -> %q", text, got)
	}
}

func TestMatchCase(t *testing.T) {
	assert.Equal(t, "Simple", matchCase("Complex", "simple"))
	assert.Equal(t, "simple", matchCase("complex", "simple"))
	assert.Equal(t, "Game plan", matchCase("PROCESS", "game plan"))
}

func TestMatchTheme(t *testing.T) {
	tests := []struct {
		interests string
		want      string
	}{
		{"basketball", "basketball"},
		{"Sports, singing", "sports"},
		{"athletics", "sports"},
		{"rock bands", "music"},
		{"outer space", "science"},
		{"data processing", ""},
		{"using computers", ""},
		{"broadband networks", ""},
		{"workspace design", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.interests, func(t *testing.T) {
			th := matchTheme(tt.interests)
			if tt.want == "" {
				assert.Nil(t, th)
				return
			}
			require.NotNil(t, th)
			assert.Equal(t, tt.want, th.name)
		})
	}
}

func TestFallbackRewrite_UnrelatedInterestsStayGeneric(t *testing.T) {
	text := "The process is a team practice step."
	generic := FallbackRewrite(text, domain.Normalize(domain.RawAudience{Age: "30"}))

	for _, interests := range []string{"data processing", "using computers", "broadband networks", "workspace design"} {
		got := FallbackRewrite(text, domain.Normalize(domain.RawAudience{Age: "30", Interests: interests}))
		assert.Equal(t, generic, got, interests)
		assert.NotContains(t, got, "🎵", interests)
		assert.NotContains(t, got, "🔬", interests)
	}
}
