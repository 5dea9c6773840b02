package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Visual track sources for the remux stage.
const (
	VisualOriginal   = "original"
	VisualSubstitute = "substitute"
	VisualGenerated  = "generated"
)

type Config struct {
	Port            int
	DataDir         string
	MaxUploadSizeMB int
	Workers         int
	JobTimeout      time.Duration

	SegmentVideo      bool
	MaxSegmentSeconds float64
	STTLanguage       string

	AzureSpeechKey    string
	AzureSpeechRegion string

	LLMProvider        string
	LLMModel           string
	OpenAIAPIKey       string
	AnthropicAPIKey    string
	AzureOpenAIKey     string
	AzureOpenAIURL     string
	AzureOpenAIVersion string
	OllamaHost         string

	SoraEndpoint string
	SoraAPIKey   string

	LogFile  string
	LogLevel string

	Assets Assets
	Visual Visual
}

// Assets are demo media resolved once at startup and handed to the remux
// stage. Empty paths mean the asset is not available.
type Assets struct {
	BackgroundMusic  string `yaml:"background_music"`
	SubstituteVisual string `yaml:"substitute_visual"`
}

type Visual struct {
	Source string `yaml:"source"`
}

type fileConfig struct {
	Assets Assets `yaml:"assets"`
	Visual Visual `yaml:"visual"`
}

func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "7890"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	maxUploadSizeMB, err := strconv.Atoi(getEnv("MAX_UPLOAD_SIZE_MB", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE_MB: %w", err)
	}

	workers, err := strconv.Atoi(getEnv("WORKERS", "2"))
	if err != nil || workers < 1 {
		return nil, fmt.Errorf("invalid WORKERS: %q", os.Getenv("WORKERS"))
	}

	jobTimeout, err := time.ParseDuration(getEnv("JOB_TIMEOUT", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_TIMEOUT: %w", err)
	}

	segmentVideo, err := strconv.ParseBool(getEnv("SEGMENT_VIDEO", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEGMENT_VIDEO: %w", err)
	}

	maxSegmentSeconds, err := strconv.ParseFloat(getEnv("MAX_SEGMENT_SECONDS", "10"), 64)
	if err != nil || maxSegmentSeconds <= 0 {
		return nil, fmt.Errorf("invalid MAX_SEGMENT_SECONDS: %q", os.Getenv("MAX_SEGMENT_SECONDS"))
	}

	cfg := &Config{
		Port:            port,
		DataDir:         getEnv("DATA_DIR", "./data"),
		MaxUploadSizeMB: maxUploadSizeMB,
		Workers:         workers,
		JobTimeout:      jobTimeout,

		SegmentVideo:      segmentVideo,
		MaxSegmentSeconds: maxSegmentSeconds,
		STTLanguage:       getEnv("STT_LANGUAGE", "en-US"),

		AzureSpeechKey:    os.Getenv("AZURE_SPEECH_KEY"),
		AzureSpeechRegion: os.Getenv("AZURE_SPEECH_REGION"),

		LLMProvider:        getEnv("LLM_PROVIDER", ProviderOpenAI),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		AzureOpenAIKey:     os.Getenv("AZURE_OPENAI_API_KEY"),
		AzureOpenAIURL:     os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureOpenAIVersion: getEnv("AZURE_OPENAI_API_VERSION", "2024-08-01-preview"),
		OllamaHost:         getEnv("OLLAMA_HOST", "http://localhost:11434"),

		SoraEndpoint: os.Getenv("SORA_ENDPOINT"),
		SoraAPIKey:   os.Getenv("SORA_API_KEY"),

		LogFile:  os.Getenv("LOG_FILE"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Visual: Visual{Source: VisualOriginal},
	}

	if path := os.Getenv("RETELL_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	switch cfg.Visual.Source {
	case VisualOriginal, VisualSubstitute, VisualGenerated:
	default:
		return nil, fmt.Errorf("invalid visual.source: %q", cfg.Visual.Source)
	}

	return cfg, nil
}

// loadFile overlays asset references from a YAML file.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if fc.Assets.BackgroundMusic != "" {
		c.Assets.BackgroundMusic = fc.Assets.BackgroundMusic
	}
	if fc.Assets.SubstituteVisual != "" {
		c.Assets.SubstituteVisual = fc.Assets.SubstituteVisual
	}
	if fc.Visual.Source != "" {
		c.Visual.Source = fc.Visual.Source
	}
	return nil
}

// SpeechConfigured reports whether Azure speech credentials are present.
func (c *Config) SpeechConfigured() bool {
	return c.AzureSpeechKey != "" && c.AzureSpeechRegion != ""
}

// LLMConfigured reports whether the selected provider has what it needs.
func (c *Config) LLMConfigured() bool {
	switch c.LLMProvider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	case ProviderAzure:
		return c.AzureOpenAIKey != "" && c.AzureOpenAIURL != ""
	case ProviderAnthropic:
		return c.AnthropicAPIKey != ""
	case ProviderOllama:
		return c.OllamaHost != ""
	}
	return false
}

func (c *Config) SoraConfigured() bool {
	return c.SoraEndpoint != "" && c.SoraAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
