// Package sora renders a substitute visual track with the Azure OpenAI
// video generation jobs API.
package sora

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/bnema/retell/internal/port"
	"github.com/sethvargo/go-retry"
)

const apiVersion = "preview"

var (
	ErrJobFailed    = errors.New("video generation failed")
	ErrNoGeneration = errors.New("video generation returned no output")
)

type Options struct {
	Model   string
	Width   int
	Height  int
	Seconds int
	// PollBase and PollCap bound the exponential poll interval.
	PollBase   time.Duration
	PollCap    time.Duration
	MaxRetries uint64
}

func DefaultOptions() Options {
	return Options{
		Model:      "sora",
		Width:      480,
		Height:     480,
		Seconds:    5,
		PollBase:   2 * time.Second,
		PollCap:    10 * time.Second,
		MaxRetries: 60,
	}
}

type Generator struct {
	endpoint string
	apiKey   string
	opts     Options
	http     *http.Client
	logger   *slog.Logger
}

func NewGenerator(endpoint, apiKey string, opts Options, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		endpoint: endpoint,
		apiKey:   apiKey,
		opts:     opts,
		http:     &http.Client{Timeout: 2 * time.Minute},
		logger:   logger,
	}
}

type createRequest struct {
	Prompt   string `json:"prompt"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	NSeconds int    `json:"n_seconds"`
	Model    string `json:"model"`
}

type generation struct {
	ID string `json:"id"`
}

type job struct {
	ID            string       `json:"id"`
	Status        string       `json:"status"`
	Generations   []generation `json:"generations"`
	FailureReason *string      `json:"failure_reason"`
}

// Generate creates a job, polls it until a terminal status and downloads
// the first generation into outPath.
func (g *Generator) Generate(ctx context.Context, prompt, outPath string) error {
	start := time.Now()

	created, err := g.create(ctx, prompt)
	if err != nil {
		return err
	}
	g.logger.Info("visual.generate.created", "sora_job", created.ID)

	final, err := g.poll(ctx, created.ID)
	if err != nil {
		return err
	}
	if len(final.Generations) == 0 {
		return ErrNoGeneration
	}

	if err := g.download(ctx, final.Generations[0].ID, outPath); err != nil {
		return err
	}
	g.logger.Info("visual.generate.done",
		"sora_job", created.ID,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (g *Generator) create(ctx context.Context, prompt string) (*job, error) {
	body, err := json.Marshal(createRequest{
		Prompt:   prompt,
		Width:    g.opts.Width,
		Height:   g.opts.Height,
		NSeconds: g.opts.Seconds,
		Model:    g.opts.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	raw, err := g.do(ctx, http.MethodPost, g.url("/openai/v1/video/generations/jobs"), body)
	if err != nil {
		return nil, fmt.Errorf("create video job: %w", err)
	}
	var j job
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, fmt.Errorf("decode video job: %w", err)
	}
	if j.ID == "" {
		return nil, fmt.Errorf("create video job: response has no id")
	}
	return &j, nil
}

func (g *Generator) poll(ctx context.Context, jobID string) (*job, error) {
	backoff := retry.WithMaxRetries(g.opts.MaxRetries,
		retry.WithCappedDuration(g.opts.PollCap, retry.NewExponential(g.opts.PollBase)))

	var final *job
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		raw, err := g.do(ctx, http.MethodGet, g.url("/openai/v1/video/generations/jobs/"+url.PathEscape(jobID)), nil)
		if err != nil {
			// Transient transport and 5xx errors are worth another poll.
			return retry.RetryableError(err)
		}
		var j job
		if err := json.Unmarshal(raw, &j); err != nil {
			return fmt.Errorf("decode video job: %w", err)
		}

		switch j.Status {
		case "succeeded":
			final = &j
			return nil
		case "failed", "cancelled":
			reason := j.Status
			if j.FailureReason != nil && *j.FailureReason != "" {
				reason = *j.FailureReason
			}
			return fmt.Errorf("%w: %s", ErrJobFailed, reason)
		default:
			g.logger.Debug("visual.generate.poll", "sora_job", jobID, "status", j.Status)
			return retry.RetryableError(fmt.Errorf("job %s still %s", jobID, j.Status))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("poll video job: %w", err)
	}
	return final, nil
}

func (g *Generator) download(ctx context.Context, generationID, outPath string) error {
	raw, err := g.do(ctx, http.MethodGet, g.url("/openai/v1/video/generations/"+url.PathEscape(generationID)+"/content/video"), nil)
	if err != nil {
		return fmt.Errorf("download video: %w", err)
	}
	if len(raw) == 0 {
		return ErrNoGeneration
	}
	if err := os.WriteFile(outPath, raw, 0600); err != nil {
		return fmt.Errorf("write video: %w", err)
	}
	return nil
}

func (g *Generator) url(path string) string {
	return g.endpoint + path + "?api-version=" + apiVersion
}

func (g *Generator) do(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("api-key", g.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("sora api: status %d", resp.StatusCode)
	}
	return raw, nil
}

var _ port.VisualGenerator = (*Generator)(nil)
