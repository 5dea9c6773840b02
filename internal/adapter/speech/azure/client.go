// Package azure talks to the Azure Speech REST endpoints for recognition
// and synthesis.
package azure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// StatusError is a non-2xx reply from the speech service.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("speech service: non-2xx status %d", e.Status)
}

// Client holds the subscription credentials shared by both directions.
type Client struct {
	key    string
	region string
	http   *http.Client
	logger *slog.Logger

	// sttBase and ttsBase are overridable for tests.
	sttBase string
	ttsBase string
}

func NewClient(key, region string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		key:     key,
		region:  region,
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
		sttBase: fmt.Sprintf("https://%s.stt.speech.microsoft.com", region),
		ttsBase: fmt.Sprintf("https://%s.tts.speech.microsoft.com", region),
	}
}

// send posts body and returns the raw response. Every call is tagged with a
// request id in the logs.
func (c *Client) send(ctx context.Context, url string, body []byte, headers map[string]string) ([]byte, error) {
	reqID := uuid.New().String()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug("speech.http.request",
		"req_id", reqID,
		"url", url,
		"content_length", len(body),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("speech.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("speech.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("speech.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		snippet := raw
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return nil, &StatusError{Status: resp.StatusCode, Body: string(snippet)}
	}
	return raw, nil
}
