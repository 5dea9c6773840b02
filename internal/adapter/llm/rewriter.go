// Package llm adapts langchaingo chat models to the transcript rewriter.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/retell/config"
	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/port"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrFatalAPI marks provider errors that retrying cannot fix, such as bad
// credentials or exhausted quota.
var ErrFatalAPI = errors.New("fatal llm api error")

const (
	maxTokens   = 2000
	temperature = 0.7
)

type Rewriter struct {
	llm       llms.Model
	modelName string
}

// NewRewriter builds the chat model for the configured provider.
func NewRewriter(cfg *config.Config) (*Rewriter, error) {
	var (
		model llms.Model
		err   error
	)

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAzure:
		if cfg.AzureOpenAIKey == "" || cfg.AzureOpenAIURL == "" {
			return nil, fmt.Errorf("Azure OpenAI key and endpoint required")
		}
		// On Azure the model name is the deployment name.
		model, err = openai.New(
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithBaseURL(cfg.AzureOpenAIURL),
			openai.WithAPIVersion(cfg.AzureOpenAIVersion),
			openai.WithToken(cfg.AzureOpenAIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create azure openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return NewRewriterWithModel(model, cfg.LLMModel), nil
}

func NewRewriterWithModel(model llms.Model, name string) *Rewriter {
	return &Rewriter{llm: model, modelName: name}
}

func (r *Rewriter) Model() string {
	return r.modelName
}

// Rewrite sends the system prompt and transcript as a two-message chat and
// returns the first choice, trimmed.
func (r *Rewriter) Rewrite(ctx context.Context, system, text string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}

	resp, err := r.llm.GenerateContent(ctx, messages,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		return "", fmt.Errorf("rewrite: %w", wrapFatalError(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("rewrite: %w: no choices", domain.ErrEmptyResult)
	}

	out := strings.TrimSpace(resp.Choices[0].Content)
	if out == "" {
		return "", fmt.Errorf("rewrite: %w", domain.ErrEmptyResult)
	}
	return out, nil
}

var fatalMarkers = []string{
	"credit balance",
	"quota",
	"billing",
	"invalid api key",
	"incorrect api key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range fatalMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func wrapFatalError(err error) error {
	if isFatalAPIError(err) {
		return fmt.Errorf("%w: %w", ErrFatalAPI, err)
	}
	return err
}

var _ port.Rewriter = (*Rewriter)(nil)
