// Package llm sends built prompts to a model provider and returns its free-text answer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/omegabytes/ecocode-sentinel/prompt"
)

const (
	DefaultTemperature  = 0.3
	DefaultMaxRetries   = 2
	DefaultRetryBackoff = 500 * time.Millisecond
)

var (
	ErrMissingAPIKey = errors.New("API key is required")
	ErrEmptyAnswer   = errors.New("no choices in response")
)

// Client completes a prompt into the model's answer text.
type Client interface {
	Complete(ctx context.Context, p prompt.Prompt) (*Completion, error)
	Provider() Provider
	Model() string
}

// Completion is the model's answer to one prompt.
type Completion struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Duration         time.Duration
}

type Config struct {
	Provider     Provider
	APIKey       string
	BaseURL      string // Optional: defaults per provider
	Model        string
	Temperature  *float64 // nil = DefaultTemperature
	MaxTokens    int      // 0 = provider default
	MaxRetries   int      // 0 = single attempt
	RetryBackoff time.Duration
}

type client struct {
	openai       openai.Client
	provider     Provider
	model        string
	temperature  float64
	maxTokens    int
	maxRetries   int
	retryBackoff time.Duration
}

// New returns a client for the configured provider. Groq requires an API key; Ollama does not.
func New(cfg Config) (Client, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = Groq
	}
	if _, err := ParseProvider(string(provider)); err != nil {
		return nil, err
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		if provider == Groq {
			return nil, ErrMissingAPIKey
		}
		// Ollama ignores the key, but the SDK would otherwise fall back to OPENAI_API_KEY.
		apiKey = "ollama"
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = provider.DefaultBaseURL()
	}

	model := cfg.Model
	if model == "" {
		model = provider.DefaultModel()
	}

	temperature := DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}

	return &client{
		openai: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
			option.WithMaxRetries(0),
		),
		provider:     provider,
		model:        model,
		temperature:  temperature,
		maxTokens:    cfg.MaxTokens,
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: backoff,
	}, nil
}

func (c *client) Provider() Provider { return c.provider }

func (c *client) Model() string { return c.model }

// Complete sends the prompt's system and user parts as separate chat messages, retrying
// rate limits, server errors and network failures.
func (c *client) Complete(ctx context.Context, p prompt.Prompt) (*Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.System),
			openai.UserMessage(p.User),
		},
		Temperature: openai.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * c.retryBackoff
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%s chat: %w", c.provider, ctx.Err())
			case <-time.After(wait):
			}
		}

		completion, err := c.complete(ctx, params)
		if err == nil {
			return completion, nil
		}
		lastErr = err
		if !IsRetryable(ctx, err) {
			break
		}
	}
	return nil, lastErr
}

func (c *client) complete(ctx context.Context, params openai.ChatCompletionNewParams) (*Completion, error) {
	start := time.Now()
	resp, err := c.openai.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s chat: %w", c.provider, err)
	}
	duration := time.Since(start)

	slog.DebugContext(ctx, "llm chat completed",
		"provider", c.provider,
		"model", c.model,
		"duration_ms", duration.Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s chat: %w", c.provider, ErrEmptyAnswer)
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return &Completion{
		Content:          resp.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		Duration:         duration,
	}, nil
}

// IsRetryable reports whether a failed completion is worth another attempt.
func IsRetryable(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		slog.DebugContext(ctx, "llm error not retryable: context cancelled or deadline exceeded")
		return false
	}
	if errors.Is(err, ErrEmptyAnswer) {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			slog.WarnContext(ctx, "llm rate limited, will retry",
				"status_code", apiErr.StatusCode)
			return true
		case apiErr.StatusCode >= 500:
			slog.WarnContext(ctx, "llm server error, will retry",
				"status_code", apiErr.StatusCode)
			return true
		default:
			slog.ErrorContext(ctx, "llm client error, not retryable",
				"status_code", apiErr.StatusCode,
				"error_type", apiErr.Type,
				"error_code", apiErr.Code)
			return false
		}
	}

	// Network errors (no API response) are generally retryable
	slog.WarnContext(ctx, "llm network error, will retry", "error", err)
	return true
}
