package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrRateLimited     = errors.New("rate limited")
	// ErrServiceBusy signals that the model provider kept rate-limiting us after
	// bounded retries. Handlers surface it with a try-again-later message instead
	// of the generic failure shape.
	ErrServiceBusy = errors.New("evaluation service busy")
	ErrInternal    = errors.New("internal error")
)

// Context is an alias so usecases and adapters share the std context type.
type Context = context.Context

// QuestionAnswer is one follow-up question asked after the pitch, with the
// founder's answer.
type QuestionAnswer struct {
	Text   string `json:"text"`
	Answer string `json:"answer"`
}

// EvaluationInput carries the pitch content for one evaluation run. It is
// ephemeral: the text and Q&A are folded into the rendered prompts and never
// persisted on their own.
type EvaluationInput struct {
	Text      string
	Questions []QuestionAnswer
}

// AspectScore is one scored sub-dimension of a criterion, positionally aligned
// with the criterion's aspect list. Score is always within [1,10].
type AspectScore struct {
	Aspect    string  `json:"aspect"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// Strength is an evidenced positive point within a criterion breakdown.
type Strength struct {
	Point  string `json:"point"`
	Impact string `json:"impact"` // High | Medium | Low
}

// Improvement is an actionable weakness within a criterion breakdown.
type Improvement struct {
	Area       string `json:"area"`
	Priority   string `json:"priority"` // Critical | Important | Nice to Have
	Actionable string `json:"actionable"`
}

// Breakdown groups the detail behind a criterion score.
type Breakdown struct {
	Strengths    []Strength    `json:"strengths"`
	Improvements []Improvement `json:"improvements"`
	AspectScores []AspectScore `json:"aspectScores"`
}

// StructuredEvaluation is one criterion's evaluation. Score is derived from the
// aspect scores (or clamped from the model's top-level score) and lands in [1,10].
type StructuredEvaluation struct {
	Criteria        string    `json:"criteria"`
	Score           float64   `json:"score"`
	Breakdown       Breakdown `json:"breakdown"`
	Summary         string    `json:"summary"`
	Recommendations []string  `json:"recommendations"`
}

// InvestmentThesis is the narrative investment view within StructuredFeedback.
type InvestmentThesis struct {
	Recommendation string `json:"recommendation"`
	Reasoning      string `json:"reasoning"`
}

// RiskAssessment carries the numeric risk score (1-10, lower is better).
type RiskAssessment struct {
	RiskScore int      `json:"riskScore"`
	KeyRisks  []string `json:"keyRisks"`
	Mitigation string  `json:"mitigation"`
}

// FoundersAssessment summarizes the founding team across all criteria.
type FoundersAssessment struct {
	ExecutionCapability string   `json:"executionCapability"`
	Strengths           []string `json:"strengths"`
	Gaps                []string `json:"gaps"`
}

// StructuredFeedback is the narrative synthesis across all four criterion
// evaluations, produced by a second model call.
type StructuredFeedback struct {
	OverallAssessment   string             `json:"overallAssessment"`
	InvestmentThesis    InvestmentThesis   `json:"investmentThesis"`
	RiskAssessment      RiskAssessment     `json:"riskAssessment"`
	NextSteps           []string           `json:"nextSteps"`
	CompetitivePosition string             `json:"competitivePosition"`
	FoundersAssessment  FoundersAssessment `json:"foundersAssessment"`
}

// EvaluationMetadata records provenance for a persisted evaluation.
type EvaluationMetadata struct {
	EvaluatedAt    time.Time `json:"evaluatedAt"`
	ModelVersion   string    `json:"modelVersion"`
	ProcessingTime int64     `json:"processingTime"` // milliseconds
	PromptVersion  string    `json:"promptVersion"`
	PolicyVersion  string    `json:"policyVersion"`
}

// StructuredEvaluationData is the persisted evaluation document.
// Invariant: OverallScore == round2(sum(evaluations[i].Score * weight)), and the
// four fixed criteria's weights sum to exactly 1.0.
type StructuredEvaluationData struct {
	Evaluations     []StructuredEvaluation `json:"evaluations"`
	OverallScore    float64                `json:"overallScore"`
	OverallFeedback StructuredFeedback     `json:"overallFeedback"`
	Metadata        EvaluationMetadata     `json:"metadata"`
}

// LegacyEvaluation is the flat per-criterion shape of records written before the
// structured format. Readers must keep accepting it.
type LegacyEvaluation struct {
	Criteria string  `json:"criteria"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// LegacyEvaluationData is the pre-structured persisted shape: a flat string
// feedback field instead of the nested StructuredFeedback object.
type LegacyEvaluationData struct {
	Evaluations     []LegacyEvaluation `json:"evaluations"`
	OverallScore    float64            `json:"overallScore"`
	OverallFeedback string             `json:"overallFeedback"`
}

// EvaluationDoc is the tagged union read at the persistence boundary. Exactly
// one of Structured or Legacy is set; the discriminator is the presence of the
// metadata field in the stored document.
type EvaluationDoc struct {
	Structured *StructuredEvaluationData
	Legacy     *LegacyEvaluationData
}

// IsLegacy reports whether the document uses the pre-structured shape.
func (d EvaluationDoc) IsLegacy() bool { return d.Legacy != nil }

// Identity is the authenticated caller supplied by the external auth provider.
type Identity struct {
	Subject string
	Name    string
}

// EvaluationRecord wraps a stored evaluation document with its envelope.
type EvaluationRecord struct {
	ID        string
	Subject   string
	CreatedBy string
	Excerpt   string
	Doc       EvaluationDoc
	CreatedAt time.Time
}

// EvaluationRepository (port)

type EvaluationRepository interface {
	Create(ctx Context, rec EvaluationRecord) (string, error)
	Get(ctx Context, id string) (EvaluationRecord, error)
	ListRecent(ctx Context, subject string, limit int) ([]EvaluationRecord, error)
}

// AIClient (port)

type AIClient interface {
	// ChatCompletion sends one chat completion request and returns the raw
	// message content. Rate-limit failures are retried internally; exhausted
	// retries surface as ErrServiceBusy.
	ChatCompletion(ctx Context, prompt string, temperature float32) (string, error)
}
