package tokencount

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountTokens(t *testing.T) {
	c := NewCounter()
	n, err := c.CountTokens("the quick brown fox jumps over the lazy dog", "gpt-4o-mini")
	require.NoError(t, err)
	require.Greater(t, n, 0)
	require.Less(t, n, 20)
}

func TestCountChatTokensIncludesOverhead(t *testing.T) {
	c := NewCounter()
	bare, err := c.CountTokens("hello", "gpt-4o-mini")
	require.NoError(t, err)
	chat, err := c.CountChatTokens("hello", "gpt-4o-mini")
	require.NoError(t, err)
	require.Greater(t, chat, bare)
}

func TestNormalizeModelName(t *testing.T) {
	require.Equal(t, "gpt-4", normalizeModelName("gpt-4o-mini"))
	require.Equal(t, "gpt-4", normalizeModelName("meta-llama/llama-3.1-8b-instruct"))
	require.Equal(t, "gpt-3.5-turbo", normalizeModelName("GPT-3.5-Turbo"))
}

func TestCalculateUsage(t *testing.T) {
	c := NewCounter()
	u, err := c.CalculateUsage("score this pitch", "8/10", "gpt-4o-mini")
	require.NoError(t, err)
	require.Equal(t, u.PromptTokens+u.CompletionTokens, u.TotalTokens)
	require.Greater(t, u.TotalTokens, 0)
}
