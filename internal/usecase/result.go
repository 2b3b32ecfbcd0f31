package usecase

import (
	"fmt"

	"github.com/pistalabs/pista/internal/domain"
)

// ResultService provides read access to stored evaluations. It is the only
// place aware of the legacy persisted shape; the evaluation pipeline never
// branches on it.
type ResultService struct {
	Evaluations domain.EvaluationRepository
}

// NewResultService constructs a ResultService with the given repository.
func NewResultService(repo domain.EvaluationRepository) ResultService {
	return ResultService{Evaluations: repo}
}

// Fetch loads one evaluation record and renders its response envelope. Both
// the structured and legacy document shapes are served; the shape is reported
// in the envelope's kind field.
func (s ResultService) Fetch(ctx domain.Context, id string) (map[string]any, error) {
	rec, err := s.Evaluations.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch evaluation: %w", err)
	}
	return renderRecord(rec), nil
}

// List returns recent evaluations for the caller, newest first.
func (s ResultService) List(ctx domain.Context, who domain.Identity, limit int) ([]map[string]any, error) {
	recs, err := s.Evaluations.ListRecent(ctx, who.Subject, limit)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	out := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, renderRecord(rec))
	}
	return out, nil
}

func renderRecord(rec domain.EvaluationRecord) map[string]any {
	m := map[string]any{
		"id":        rec.ID,
		"createdBy": rec.CreatedBy,
		"excerpt":   rec.Excerpt,
		"createdAt": rec.CreatedAt,
	}
	if rec.Doc.IsLegacy() {
		m["kind"] = "legacy"
		m["data"] = rec.Doc.Legacy
	} else {
		m["kind"] = "structured"
		m["data"] = rec.Doc.Structured
	}
	return m
}
