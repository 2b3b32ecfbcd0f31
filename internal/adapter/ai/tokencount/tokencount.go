// Package tokencount counts tokens for chat completions using tiktoken-go,
// for usage logging and cost tracking.
package tokencount

import (
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Usage represents token counts for one chat completion call.
type Usage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
}

// Counter provides thread-safe token counting with cached encodings.
type Counter struct {
	encodingCache map[string]*tiktoken.Tiktoken
	mu            sync.RWMutex
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{encodingCache: make(map[string]*tiktoken.Tiktoken)}
}

func (c *Counter) encodingFor(model string) (*tiktoken.Tiktoken, error) {
	normalized := normalizeModelName(model)

	c.mu.RLock()
	if enc, ok := c.encodingCache[normalized]; ok {
		c.mu.RUnlock()
		return enc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodingCache[normalized]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(normalized)
	if err != nil {
		// cl100k_base covers GPT-4, GPT-3.5 and most modern models.
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	c.encodingCache[normalized] = enc
	return enc, nil
}

// normalizeModelName maps provider model IDs onto tiktoken-compatible names.
func normalizeModelName(model string) string {
	model = strings.ToLower(model)
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	switch {
	case strings.Contains(model, "gpt-3.5"):
		return "gpt-3.5-turbo"
	default:
		// GPT-4 family encoding is a reasonable approximation for the rest.
		return "gpt-4"
	}
}

// CountTokens counts the tokens in text for the given model.
func (c *Counter) CountTokens(text, model string) (int, error) {
	enc, err := c.encodingFor(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// CountChatTokens counts prompt tokens for a single-message chat request,
// including the per-message overhead of OpenAI-compatible APIs.
func (c *Counter) CountChatTokens(prompt, model string) (int, error) {
	enc, err := c.encodingFor(model)
	if err != nil {
		return 0, err
	}
	// 3 tokens per message + 1 for the role, plus the reply priming tokens.
	n := 3 + 1
	n += len(enc.Encode("user", nil, nil))
	n += len(enc.Encode(prompt, nil, nil))
	n += 3
	return n, nil
}

// CalculateUsage computes full usage for a prompt/completion pair. Counting
// failures fall back to a rough 4-chars-per-token estimate.
func (c *Counter) CalculateUsage(prompt, completion, model string) (*Usage, error) {
	promptTokens, err := c.CountChatTokens(prompt, model)
	if err != nil {
		promptTokens = len(prompt) / 4
	}
	completionTokens, err := c.CountTokens(completion, model)
	if err != nil {
		completionTokens = len(completion) / 4
	}
	return &Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		Model:            model,
	}, nil
}
