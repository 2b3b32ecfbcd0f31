package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	httpserver "github.com/pistalabs/pista/internal/adapter/httpserver"
	"github.com/pistalabs/pista/internal/config"
	"github.com/pistalabs/pista/internal/usecase"
)

func TestParseOrigins(t *testing.T) {
	require.Equal(t, []string{"*"}, ParseOrigins(""))
	require.Equal(t, []string{"*"}, ParseOrigins("*"))
	require.Equal(t, []string{"https://a.example", "https://b.example"}, ParseOrigins(" https://a.example, https://b.example ,"))
}

func TestBuildRouter_Routes(t *testing.T) {
	cfg := config.Config{
		AppEnv:             "test",
		RateLimitPerMin:    100,
		MaxHandlerDuration: 5e9,
		ListDefaultLimit:   20,
		MaxUploadMB:        1,
	}
	srv := httpserver.NewServer(cfg, usecase.EvaluateService{}, usecase.ResultService{}, nil)
	h := BuildRouter(cfg, srv)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Empty body on the fixed contract endpoint
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/evaluate", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"No text provided"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
