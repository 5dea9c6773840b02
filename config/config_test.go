package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RETELL_CONFIG", "")
	t.Setenv("AZURE_SPEECH_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7890, cfg.Port)
	assert.Equal(t, 100, cfg.MaxUploadSizeMB)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 30*time.Minute, cfg.JobTimeout)
	assert.Equal(t, 10.0, cfg.MaxSegmentSeconds)
	assert.False(t, cfg.SegmentVideo)
	assert.Equal(t, VisualOriginal, cfg.Visual.Source)
	assert.False(t, cfg.SpeechConfigured())
	assert.False(t, cfg.LLMConfigured())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value, msg string
	}{
		{"PORT", "abc", "invalid PORT"},
		{"MAX_UPLOAD_SIZE_MB", "lots", "invalid MAX_UPLOAD_SIZE_MB"},
		{"WORKERS", "0", "invalid WORKERS"},
		{"JOB_TIMEOUT", "forever", "invalid JOB_TIMEOUT"},
		{"SEGMENT_VIDEO", "maybe", "invalid SEGMENT_VIDEO"},
		{"MAX_SEGMENT_SECONDS", "-1", "invalid MAX_SEGMENT_SECONDS"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoad_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retell.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
assets:
  background_music: /assets/music.mp3
  substitute_visual: /assets/placeholder.mp4
visual:
  source: substitute
`), 0600))
	t.Setenv("RETELL_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/assets/music.mp3", cfg.Assets.BackgroundMusic)
	assert.Equal(t, "/assets/placeholder.mp4", cfg.Assets.SubstituteVisual)
	assert.Equal(t, VisualSubstitute, cfg.Visual.Source)
}

func TestLoad_FileOverlayErrors(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("RETELL_CONFIG", filepath.Join(dir, "missing.yaml"))
	_, err := Load()
	assert.ErrorContains(t, err, "read config file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("assets: [oops"), 0600))
	t.Setenv("RETELL_CONFIG", bad)
	_, err = Load()
	assert.ErrorContains(t, err, "parse config file")

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("visual:\n  source: hologram\n"), 0600))
	t.Setenv("RETELL_CONFIG", unknown)
	_, err = Load()
	assert.ErrorContains(t, err, "invalid visual.source")
}

func TestLLMConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"openai with key", Config{LLMProvider: ProviderOpenAI, OpenAIAPIKey: "k"}, true},
		{"azure missing endpoint", Config{LLMProvider: ProviderAzure, AzureOpenAIKey: "k"}, false},
		{"azure complete", Config{LLMProvider: ProviderAzure, AzureOpenAIKey: "k", AzureOpenAIURL: "https://x"}, true},
		{"anthropic without key", Config{LLMProvider: ProviderAnthropic}, false},
		{"ollama", Config{LLMProvider: ProviderOllama, OllamaHost: "http://localhost:11434"}, true},
		{"unknown", Config{LLMProvider: "bard"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.LLMConfigured())
		})
	}
}
