package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "basketball, music", "basketball, music"},
		{"empty", "", ""},
		{"newline", "line1\nline2", `line1\nline2`},
		{"crlf", "a\r\nb", `a\r\nb`},
		{"tab", "col1\tcol2", `col1\tcol2`},
		{"null", "before\x00after", `before\x00after`},
		{"ansi", "\x1b[31mred\x1b[0m", `\x1b[31mred\x1b[0m`},
		{"bell", "a\x07b", `a\x07b`},
		{"del", "a\x7fb", `a\x7fb`},
		{"unicode kept", "fútbol 🏀 音楽", "fútbol 🏀 音楽"},
		{"forged entry", "soccer\nlevel=ERROR msg=fake", `soccer\nlevel=ERROR msg=fake`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeForLog(tt.input))
		})
	}
}

func TestSanitizeForLog_AllControlChars(t *testing.T) {
	for i := 0; i < 32; i++ {
		out := SanitizeForLog(string(rune(i)))
		assert.True(t, strings.HasPrefix(out, `\`), "control char 0x%02x must be escaped, got %q", i, out)
	}
	assert.Equal(t, `\x7f`, SanitizeForLog("\x7f"))
}

func TestText_Truncates(t *testing.T) {
	attr := Text("interests", strings.Repeat("é", 300))
	assert.Equal(t, "interests", attr.Key)
	assert.Equal(t, maxLoggedValue+1, len([]rune(attr.Value.String())))

	attr = Text("name", "clip\n.mp4")
	assert.Equal(t, `clip\n.mp4`, attr.Value.String())
}

func TestNewWithWriters_FansOut(t *testing.T) {
	var text, js bytes.Buffer
	l := NewWithWriters(&text, &js, slog.LevelInfo)

	l.Debug("hidden")
	l.Info("pipeline.stage.done", "job_id", "abc", Text("interests", "music\nERROR"))

	assert.NotContains(t, text.String(), "hidden")
	assert.Contains(t, text.String(), "pipeline.stage.done")
	assert.Contains(t, text.String(), `interests=music\nERROR`)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &rec))
	assert.Equal(t, "pipeline.stage.done", rec["msg"])
	assert.Equal(t, "abc", rec["job_id"])
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"info":  slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
