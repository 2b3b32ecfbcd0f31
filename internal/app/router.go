// Package app wires configuration, middleware, and handlers into the HTTP
// surface of the service.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	httpserver "github.com/pistalabs/pista/internal/adapter/httpserver"
	"github.com/pistalabs/pista/internal/adapter/observability"
	"github.com/pistalabs/pista/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming
// spaces. An empty input allows all origins.
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middleware and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(traceMiddleware)
	r.Use(httpserver.RequestID())
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)
	r.Use(httpserver.IdentityMiddleware(cfg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Evaluation-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// The evaluation endpoints run the whole pipeline inside the request, so
	// they get the long handler deadline and a per-IP rate limit.
	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		wr.Use(httpserver.TimeoutMiddleware(cfg.MaxHandlerDuration))
		wr.Post("/api/evaluate", srv.EvaluateHandler())
		wr.Post("/api/evaluate-answers", srv.EvaluateAnswersHandler())
		wr.Post("/api/pitches/upload", srv.UploadPitchHandler())
	})

	r.Get("/api/evaluations/{id}", srv.GetEvaluationHandler())
	r.Get("/api/evaluations", srv.ListEvaluationsHandler())

	r.Get("/healthz", httpserver.HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return httpserver.SecurityHeaders(r)
}

func traceMiddleware(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "http.server")
}
