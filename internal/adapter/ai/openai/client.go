// Package openai implements domain.AIClient against any OpenAI-compatible
// chat completions API.
package openai

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/pistalabs/pista/internal/adapter/ai/tokencount"
	"github.com/pistalabs/pista/internal/adapter/observability"
	"github.com/pistalabs/pista/internal/config"
	"github.com/pistalabs/pista/internal/domain"
)

// Client calls the configured chat model. Only provider rate limits are
// retried; every other failure surfaces immediately.
type Client struct {
	api     *goopenai.Client
	model   string
	cfg     config.Config
	counter *tokencount.Counter
}

// New constructs a Client from configuration.
func New(cfg config.Config) *Client {
	apiCfg := goopenai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		apiCfg.BaseURL = cfg.OpenAIBaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: 90 * time.Second}
	return &Client{
		api:     goopenai.NewClientWithConfig(apiCfg),
		model:   cfg.ChatModel,
		cfg:     cfg,
		counter: tokencount.NewCounter(),
	}
}

// ChatCompletion sends one user prompt and returns the raw message content.
// A 429 from the provider is retried with exponential backoff up to the
// configured attempt budget; exhaustion maps to domain.ErrServiceBusy.
func (c *Client) ChatCompletion(ctx domain.Context, prompt string, temperature float32) (string, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY missing", domain.ErrInvalidArgument)
	}

	req := goopenai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	}

	var content string
	attempts := 0
	op := func() error {
		attempts++
		start := time.Now()
		resp, err := c.api.CreateChatCompletion(ctx, req)
		dur := time.Since(start)
		if err != nil {
			if isRateLimited(err) {
				observability.ObserveAIRequest("chat", "rate_limited", dur)
				observability.AIRetriesTotal.Inc()
				slog.Warn("model provider rate limited",
					slog.String("model", c.model),
					slog.Int("attempt", attempts))
				return fmt.Errorf("%w: provider returned 429", domain.ErrRateLimited)
			}
			observability.ObserveAIRequest("chat", "error", dur)
			slog.Error("chat completion failed",
				slog.String("model", c.model),
				slog.Any("error", err))
			return backoff.Permanent(err)
		}
		if len(resp.Choices) == 0 {
			observability.ObserveAIRequest("chat", "empty", dur)
			return backoff.Permanent(errors.New("empty choices from provider"))
		}
		observability.ObserveAIRequest("chat", "ok", dur)
		content = resp.Choices[0].Message.Content
		if usage, uerr := c.counter.CalculateUsage(prompt, content, c.model); uerr == nil {
			slog.Debug("chat completion tokens",
				slog.String("model", c.model),
				slog.Int("prompt_tokens", usage.PromptTokens),
				slog.Int("completion_tokens", usage.CompletionTokens))
		}
		return nil
	}

	initial, maxInterval, multiplier, maxAttempts := c.cfg.AIBackoffConfig()
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = initial
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	bo := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(maxAttempts-1)), ctx)

	if err := backoff.Retry(op, bo); err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			return "", fmt.Errorf("%w: rate limited after %d attempts", domain.ErrServiceBusy, attempts)
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return content, nil
}

// isRateLimited reports whether the provider signalled HTTP 429.
func isRateLimited(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
