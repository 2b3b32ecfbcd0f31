package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pistalabs/pista/internal/config"
	"github.com/pistalabs/pista/internal/domain"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		AppEnv:               "test",
		OpenAIAPIKey:         "test-key",
		OpenAIBaseURL:        baseURL,
		ChatModel:            "gpt-4o-mini",
		AIBackoffMaxAttempts: 3,
	}
}

func chatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestChatCompletion_Success(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"score\": 7}"}}]}`))
	})

	c := New(testConfig(srv.URL))
	out, err := c.ChatCompletion(context.Background(), "score this pitch", 0.2)
	require.NoError(t, err)
	require.Equal(t, `{"score": 7}`, out)
}

func TestChatCompletion_RateLimitExhaustionMapsToServiceBusy(t *testing.T) {
	var calls int64
	srv := chatServer(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_exceeded"}}`))
	})

	c := New(testConfig(srv.URL))
	_, err := c.ChatCompletion(context.Background(), "score this pitch", 0.2)
	require.ErrorIs(t, err, domain.ErrServiceBusy)
	require.EqualValues(t, 3, atomic.LoadInt64(&calls))
}

func TestChatCompletion_RateLimitThenSuccessRetries(t *testing.T) {
	var calls int64
	srv := chatServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt64(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_exceeded"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	})

	c := New(testConfig(srv.URL))
	out, err := c.ChatCompletion(context.Background(), "score this pitch", 0.2)
	require.NoError(t, err)
	require.Equal(t, "ok", out)
	require.EqualValues(t, 2, atomic.LoadInt64(&calls))
}

func TestChatCompletion_ClientErrorIsNotRetried(t *testing.T) {
	var calls int64
	srv := chatServer(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
	})

	c := New(testConfig(srv.URL))
	_, err := c.ChatCompletion(context.Background(), "score this pitch", 0.2)
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrServiceBusy)
	require.EqualValues(t, 1, atomic.LoadInt64(&calls))
}

func TestChatCompletion_MissingAPIKey(t *testing.T) {
	c := New(config.Config{AppEnv: "test", ChatModel: "gpt-4o-mini", AIBackoffMaxAttempts: 3})
	_, err := c.ChatCompletion(context.Background(), "score this pitch", 0.2)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}
