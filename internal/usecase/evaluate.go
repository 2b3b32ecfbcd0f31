// Package usecase contains the pitch evaluation pipeline and read-side services.
package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pistalabs/pista/internal/adapter/observability"
	"github.com/pistalabs/pista/internal/domain"
)

// EvaluateService runs the full scoring pipeline for one pitch submission:
// prompt building, four concurrent criterion evaluations, aggregation, the
// narrative feedback pass, and persistence of the combined document.
type EvaluateService struct {
	AI          domain.AIClient
	Evaluations domain.EvaluationRepository
	ModelName   string
}

// NewEvaluateService constructs an EvaluateService with its dependencies.
func NewEvaluateService(ai domain.AIClient, repo domain.EvaluationRepository, modelName string) EvaluateService {
	return EvaluateService{AI: ai, Evaluations: repo, ModelName: modelName}
}

// Run evaluates the pitch and persists the result attributed to the caller.
// The four criterion calls run concurrently; the first failure aborts the
// whole evaluation and nothing is persisted. Parse-level problems never fail
// the run (they degrade inside the parser and the feedback fallback).
func (s EvaluateService) Run(ctx domain.Context, input domain.EvaluationInput, who domain.Identity) (domain.StructuredEvaluationData, string, error) {
	start := time.Now()
	content := BuildContent(input.Text, input.Questions)

	criteria := domain.Rubric()
	evaluations := make([]domain.StructuredEvaluation, len(criteria))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range criteria {
		g.Go(func() error {
			raw, err := s.AI.ChatCompletion(gctx, buildCriterionPrompt(c.Name, c.Aspects, content), criterionTemperature)
			if err != nil {
				return fmt.Errorf("criterion %q: %w", c.Name, err)
			}
			evaluations[i] = ParseEvaluation(raw, c.Name, c.Aspects)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.StructuredEvaluationData{}, "", err
	}

	overall := Aggregate(evaluations)

	feedback, err := GenerateFeedback(ctx, s.AI, content, evaluations)
	if err != nil {
		return domain.StructuredEvaluationData{}, "", fmt.Errorf("feedback synthesis: %w", err)
	}

	data := domain.StructuredEvaluationData{
		Evaluations:     evaluations,
		OverallScore:    overall,
		OverallFeedback: feedback,
		Metadata: domain.EvaluationMetadata{
			EvaluatedAt:    time.Now().UTC(),
			ModelVersion:   s.ModelName,
			ProcessingTime: time.Since(start).Milliseconds(),
			PromptVersion:  PromptVersion,
			PolicyVersion:  PolicyVersion,
		},
	}

	id, err := s.Evaluations.Create(ctx, domain.EvaluationRecord{
		Subject:   who.Subject,
		CreatedBy: who.Name,
		Excerpt:   excerpt(input.Text, 280),
		Doc:       domain.EvaluationDoc{Structured: &data},
	})
	if err != nil {
		return domain.StructuredEvaluationData{}, "", fmt.Errorf("persist evaluation: %w", err)
	}

	observability.OverallScoreHistogram.Observe(overall)
	byCriterion := make(map[string]float64, len(evaluations))
	for _, ev := range evaluations {
		byCriterion[ev.Criteria] = ev.Score
	}
	observability.ObserveCriterionScores(byCriterion)
	slog.Info("evaluation completed",
		slog.String("evaluation_id", id),
		slog.Float64("overall_score", overall),
		slog.Int64("processing_ms", data.Metadata.ProcessingTime))
	return data, id, nil
}

// ToLegacyShape downconverts a structured document to the pre-structured
// response shape served by the evaluate-answers endpoint.
func ToLegacyShape(data domain.StructuredEvaluationData) domain.LegacyEvaluationData {
	out := domain.LegacyEvaluationData{
		OverallScore:    data.OverallScore,
		OverallFeedback: data.OverallFeedback.OverallAssessment,
	}
	for _, ev := range data.Evaluations {
		out.Evaluations = append(out.Evaluations, domain.LegacyEvaluation{
			Criteria: ev.Criteria,
			Score:    ev.Score,
			Feedback: ev.Summary,
		})
	}
	return out
}
