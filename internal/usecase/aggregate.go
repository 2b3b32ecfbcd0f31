package usecase

import (
	"encoding/json"
	"log/slog"
	"math"

	"github.com/pistalabs/pista/internal/domain"
)

// feedbackTemperature is slightly higher than the criterion calls: the second
// pass writes prose, not scores.
const (
	criterionTemperature float32 = 0.2
	feedbackTemperature  float32 = 0.4
)

// defaultFeedback is the single canonical fallback returned when the feedback
// call's JSON cannot be parsed. The pipeline always yields a renderable
// feedback object rather than failing the evaluation.
var defaultFeedback = domain.StructuredFeedback{
	OverallAssessment: "Automated narrative synthesis was unavailable for this evaluation; manual review required.",
	InvestmentThesis: domain.InvestmentThesis{
		Recommendation: "Manual review required",
		Reasoning:      "The synthesis step did not return a parseable result; rely on the per-criterion scores and breakdowns.",
	},
	RiskAssessment: domain.RiskAssessment{
		RiskScore:  5,
		KeyRisks:   []string{"Narrative risk analysis unavailable; manual review required."},
		Mitigation: "Review the per-criterion improvements for specific risk areas.",
	},
	NextSteps:           []string{"Review the per-criterion recommendations.", "Re-run the evaluation if a narrative summary is needed."},
	CompetitivePosition: "Competitive analysis unavailable; manual review required.",
	FoundersAssessment: domain.FoundersAssessment{
		ExecutionCapability: "Good",
		Strengths:           []string{},
		Gaps:                []string{},
	},
}

// DefaultFeedback returns the canonical neutral fallback feedback object.
func DefaultFeedback() domain.StructuredFeedback { return defaultFeedback }

// Aggregate combines per-criterion evaluations into the overall pitch score.
// Each evaluation's score is rounded to 2 decimals in place, then weighted by
// the fixed rubric table (unknown criteria fall back to weight 0.25). A zero
// total weight yields 0 rather than a division by zero.
func Aggregate(evaluations []domain.StructuredEvaluation) float64 {
	var weighted, total float64
	for i := range evaluations {
		evaluations[i].Score = round2(evaluations[i].Score)
		w := domain.CriterionWeight(evaluations[i].Criteria)
		weighted += evaluations[i].Score * w
		total += w
	}
	if total == 0 {
		return 0
	}
	// For the fixed rubric the weights sum to exactly 1.0, so the division is
	// an identity; it guards partial criterion sets.
	return round2(weighted / total)
}

// GenerateFeedback runs the second model pass that synthesizes narrative
// feedback from the criterion evaluations. Parse failures degrade to the
// canonical default; only transport errors propagate.
func GenerateFeedback(ctx domain.Context, ai domain.AIClient, content string, evaluations []domain.StructuredEvaluation) (domain.StructuredFeedback, error) {
	raw, err := ai.ChatCompletion(ctx, buildFeedbackPrompt(content, evaluations), feedbackTemperature)
	if err != nil {
		return domain.StructuredFeedback{}, err
	}
	return parseFeedback(raw), nil
}

// parseFeedback decodes the synthesis response, falling back to the canonical
// default on any parse failure.
func parseFeedback(raw string) domain.StructuredFeedback {
	js, ok := extractFirstJSONObject(raw)
	if !ok {
		slog.Warn("feedback response had no JSON object; using default feedback")
		return defaultFeedback
	}
	var fb domain.StructuredFeedback
	if err := json.Unmarshal([]byte(js), &fb); err != nil {
		slog.Warn("feedback response failed to parse; using default feedback", slog.Any("error", err))
		return defaultFeedback
	}
	if fb.RiskAssessment.RiskScore < 1 || fb.RiskAssessment.RiskScore > 10 {
		fb.RiskAssessment.RiskScore = int(clampScore(float64(fb.RiskAssessment.RiskScore)))
	}
	return fb
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
