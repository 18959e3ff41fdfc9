package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"esamind/internal/metrics"
)

var (
	// ErrInvalidAPIKey indicates OpenAI rejected the configured credentials.
	ErrInvalidAPIKey = errors.New("openai invalid api key")
	// ErrRateLimited indicates the request hit the rate limit.
	ErrRateLimited = errors.New("openai rate limited")
	// ErrQuotaExceeded indicates the account ran out of quota.
	ErrQuotaExceeded = errors.New("openai quota exceeded")
	// ErrModelUnavailable indicates the requested model does not exist or
	// is not accessible with the current key.
	ErrModelUnavailable = errors.New("openai model unavailable")
	// ErrEmptyCompletion indicates the API answered without usable content.
	ErrEmptyCompletion = errors.New("openai empty completion")
)

// Client calls the OpenAI chat completions API.
type Client struct {
	logger  *slog.Logger
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	metrics *metrics.Metrics
}

// Config holds OpenAI client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Usage reports token consumption and the estimated cost of one completion.
type Usage struct {
	Model        string  `json:"model"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	TotalTokens  int64   `json:"total_tokens"`
	Cost         float64 `json:"cost"`
}

// Completion is the result of one reading generation.
type Completion struct {
	Content string
	Usage   Usage
}

func New(cfg Config, logger *slog.Logger, metrics *metrics.Metrics) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		logger:  logger.With("component", "openai"),
		baseURL: base,
		apiKey:  cfg.APIKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
		metrics: metrics,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateReading sends prompt as a single user message and returns the
// completion with usage accounting.
func (c *Client) GenerateReading(ctx context.Context, prompt string) (*Completion, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.8,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.observe("error", start)
		return nil, fmt.Errorf("openai request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		c.observe("error", start)
		return nil, fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode >= 400 {
		c.observe(fmt.Sprintf("%d", res.StatusCode), start)
		return nil, classifyAPIError(res.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.observe("error", start)
		return nil, fmt.Errorf("decode response: %w", err)
	}

	content := ""
	if len(parsed.Choices) > 0 {
		content = parsed.Choices[0].Message.Content
	}
	if strings.TrimSpace(content) == "" {
		c.observe("empty", start)
		return nil, ErrEmptyCompletion
	}

	model := parsed.Model
	if model == "" {
		model = c.model
	}

	c.observe("ok", start)
	return &Completion{
		Content: content,
		Usage: Usage{
			Model:        model,
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
			Cost:         EstimateCost(model, parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens),
		},
	}, nil
}

func (c *Client) observe(status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.OpenAIRequests.WithLabelValues(status).Inc()
	c.metrics.OpenAILatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

// EstimateCost prices a completion in USD using per-million-token tiers.
func EstimateCost(model string, inputTokens, outputTokens int64) float64 {
	inputRate, outputRate := 2.50, 10.00
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "mini"):
		inputRate, outputRate = 0.15, 0.60
	case strings.Contains(lower, "turbo"):
		inputRate, outputRate = 10.00, 30.00
	}
	return float64(inputTokens)/1_000_000*inputRate + float64(outputTokens)/1_000_000*outputRate
}

func classifyAPIError(status int, body string) error {
	snippet := strings.TrimSpace(body)
	lower := strings.ToLower(snippet)

	switch {
	case status == http.StatusUnauthorized ||
		strings.Contains(lower, "invalid api key") ||
		strings.Contains(lower, "incorrect api key"):
		return fmt.Errorf("%w: %s", ErrInvalidAPIKey, snippet)
	case strings.Contains(lower, "insufficient_quota") ||
		strings.Contains(lower, "exceeded your current quota"):
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, snippet)
	case status == http.StatusTooManyRequests ||
		strings.Contains(lower, "rate limit"):
		return fmt.Errorf("%w: %s", ErrRateLimited, snippet)
	case strings.Contains(lower, "model_not_found") ||
		strings.Contains(lower, "does not exist"):
		return fmt.Errorf("%w: %s", ErrModelUnavailable, snippet)
	default:
		return fmt.Errorf("openai error: status=%d body=%s", status, snippet)
	}
}
