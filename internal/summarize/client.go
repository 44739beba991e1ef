package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/docsum-api/internal/config"
	"github.com/phrazzld/docsum-api/internal/platform/logger"
)

// MissingSummaryPlaceholder is substituted when the remote capability
// answers successfully but carries no usable summary field.
const MissingSummaryPlaceholder = "[no summary provided]"

// Summarizer is the remote summarization capability as consumed by the
// orchestrator: one text in, one summary out.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Client implements Summarizer against the remote HTTP inference
// endpoint. Each call is guarded by the configured timeout; a timed-out
// call surfaces as ErrUpstreamInference.
type Client struct {
	httpClient *http.Client
	url        string
	model      string
	logger     *slog.Logger
}

// NewClient creates a summarization client from configuration.
// If logger is nil, a default logger will be used.
func NewClient(cfg config.SummarizerConfig, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: URL cannot be empty", ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model cannot be empty", ErrInvalidConfig)
	}
	if cfg.RequestTimeoutSeconds < 1 {
		return nil, fmt.Errorf("%w: request timeout must be positive", ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		url:    cfg.URL,
		model:  cfg.Model,
		logger: logger.With(slog.String("component", "summarize_client")),
	}, nil
}

// Ensure Client implements Summarizer
var _ Summarizer = (*Client)(nil)

// inferRequest is the wire request consumed by the remote capability.
type inferRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// inferResponse accepts both response shapes the capability is known to
// produce: {"summary": ...} and {"result": {"summary": ...}}.
type inferResponse struct {
	Summary string `json:"summary"`
	Result  *struct {
		Summary string `json:"summary"`
	} `json:"result"`
}

// Summarize implements Summarizer. The raw upstream response shape is
// normalized here; nothing downstream ever inspects it.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	payload, err := json.Marshal(inferRequest{Model: c.model, Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug("calling remote summarizer",
		slog.String("model", c.model),
		slog.Int("text_length", len(text)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("remote summarizer call failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: %v", ErrUpstreamInference, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		log.Warn("remote summarizer returned non-success status",
			slog.Int("status_code", resp.StatusCode))
		return "", fmt.Errorf("%w: unexpected status %d", ErrUpstreamInference, resp.StatusCode)
	}

	var body inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Warn("remote summarizer returned malformed body", slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: malformed response body: %v", ErrUpstreamInference, err)
	}

	return normalizeSummary(body), nil
}

// normalizeSummary converts either upstream shape to the canonical
// summary string, substituting a placeholder when a 2xx response carries
// no usable field.
func normalizeSummary(body inferResponse) string {
	if body.Result != nil && body.Result.Summary != "" {
		return body.Result.Summary
	}
	if body.Summary != "" {
		return body.Summary
	}
	return MissingSummaryPlaceholder
}
