package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pistalabs/pista/internal/adapter/observability"
	"github.com/pistalabs/pista/internal/config"
	"github.com/pistalabs/pista/internal/domain"
	"github.com/pistalabs/pista/internal/usecase"
	"github.com/pistalabs/pista/pkg/textx"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg      config.Config
	Evaluate usecase.EvaluateService
	Results  usecase.ResultService
	DBCheck  func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, eval usecase.EvaluateService, results usecase.ResultService, dbCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Evaluate: eval, Results: results, DBCheck: dbCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

type evaluateRequest struct {
	Text      string `json:"text"`
	Questions []struct {
		Text   string `json:"text" validate:"max=5000"`
		Answer string `json:"answer" validate:"max=5000"`
	} `json:"questions" validate:"dive"`
}

// EvaluateHandler runs the full evaluation pipeline synchronously and returns
// the structured document.
func (s *Server) EvaluateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req evaluateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, msgNoText)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeErrorMessage(w, http.StatusBadRequest, msgNoText)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		input := domain.EvaluationInput{Text: req.Text}
		for _, q := range req.Questions {
			input.Questions = append(input.Questions, domain.QuestionAnswer{Text: q.Text, Answer: q.Answer})
		}

		data, id, err := s.Evaluate.Run(r.Context(), input, IdentityFrom(r))
		if err != nil {
			LoggerFrom(r).Error("evaluation failed", "error", err)
			writeEvaluationError(w, err)
			return
		}
		w.Header().Set("X-Evaluation-Id", id)
		writeJSON(w, http.StatusOK, data)
	}
}

type evaluateAnswersRequest struct {
	PitchText string `json:"pitchText"`
	Answers   []struct {
		Question string `json:"question" validate:"max=5000"`
		Answer   string `json:"answer" validate:"max=5000"`
	} `json:"answers" validate:"dive"`
}

// EvaluateAnswersHandler serves the older Q&A-centric endpoint. The pipeline
// is identical; only the request and response shapes differ.
func (s *Server) EvaluateAnswersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req evaluateAnswersRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, msgNoText)
			return
		}
		if strings.TrimSpace(req.PitchText) == "" {
			writeErrorMessage(w, http.StatusBadRequest, msgNoText)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		input := domain.EvaluationInput{Text: req.PitchText}
		for _, a := range req.Answers {
			input.Questions = append(input.Questions, domain.QuestionAnswer{Text: a.Question, Answer: a.Answer})
		}

		data, id, err := s.Evaluate.Run(r.Context(), input, IdentityFrom(r))
		if err != nil {
			LoggerFrom(r).Error("evaluation failed", "error", err)
			writeEvaluationError(w, err)
			return
		}
		legacy := usecase.ToLegacyShape(data)
		w.Header().Set("X-Evaluation-Id", id)
		writeJSON(w, http.StatusOK, map[string]any{
			"evaluations":     legacy.Evaluations,
			"overallScore":    legacy.OverallScore,
			"overallFeedback": legacy.OverallFeedback,
			"meta":            data.Metadata,
		})
	}
}

// UploadPitchHandler accepts a multipart pitch deck text file, sniffs its
// content type, sanitizes it, and returns the extracted text. Only plain text
// files are accepted; slide formats are exported to text client-side.
func (s *Server) UploadPitchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeErrorMessage(w, http.StatusBadRequest, "content-type must be multipart/form-data")
			observability.PitchUploadsTotal.WithLabelValues("rejected").Inc()
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeErrorMessage(w, http.StatusRequestEntityTooLarge, "payload too large")
			} else {
				writeErrorMessage(w, http.StatusBadRequest, "invalid multipart body")
			}
			observability.PitchUploadsTotal.WithLabelValues("rejected").Inc()
			return
		}
		file, header, err := r.FormFile("pitch")
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "pitch file required")
			observability.PitchUploadsTotal.WithLabelValues("rejected").Inc()
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "pitch file unreadable")
			observability.PitchUploadsTotal.WithLabelValues("rejected").Inc()
			return
		}
		if m := mimetype.Detect(data); !strings.HasPrefix(m.String(), "text/") {
			writeErrorMessage(w, http.StatusUnsupportedMediaType, "only plain text pitches are supported")
			observability.PitchUploadsTotal.WithLabelValues("rejected").Inc()
			return
		}

		text := textx.SanitizeText(string(data))
		observability.PitchUploadsTotal.WithLabelValues("ok").Inc()
		writeJSON(w, http.StatusOK, map[string]any{
			"text":     text,
			"filename": header.Filename,
			"size":     len(data),
		})
	}
}

// GetEvaluationHandler serves one stored evaluation, structured or legacy.
func (s *Server) GetEvaluationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeErrorMessage(w, http.StatusBadRequest, "id missing")
			return
		}
		res, err := s.Results.Fetch(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ListEvaluationsHandler serves the caller's recent evaluations.
func (s *Server) ListEvaluationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := s.Cfg.ListDefaultLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 100 {
				writeErrorMessage(w, http.StatusBadRequest, "limit must be between 1 and 100")
				return
			}
			limit = n
		}
		res, err := s.Results.List(r.Context(), IdentityFrom(r), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"evaluations": res})
	}
}

// HealthzHandler reports process liveness.
func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler probes the database.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 1)
		ok := true
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks = append(checks, check{Name: "db", OK: false, Details: err.Error()})
				ok = false
			} else {
				checks = append(checks, check{Name: "db", OK: true})
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
