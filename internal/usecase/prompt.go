package usecase

import (
	"fmt"
	"strings"

	"github.com/pistalabs/pista/internal/domain"
)

// PromptVersion identifies the criterion prompt template generation, recorded
// in evaluation metadata so stored scores stay comparable across revisions.
const PromptVersion = "v2"

// PolicyVersion identifies the scoring policy (anchor scale, evidence rule).
const PolicyVersion = "2025.1"

// buildCriterionPrompt renders the evaluation prompt for a single rubric
// criterion. The model scores only the given criterion, must cite evidence,
// and returns JSON keyed by the literal aspect names.
func buildCriterionPrompt(criterion string, aspects []string, content string) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "You are a startup pitch evaluator. Score ONLY the criterion %q for the pitch below.\n\n", criterion)
	b.WriteString("Score each of these aspects from 1 to 10:\n")
	for i, a := range aspects {
		fmt.Fprintf(b, "%d. %s\n", i+1, a)
	}
	b.WriteString(`
Scoring anchors (apply strictly, avoid defaulting to the middle):
- 1-2: no evidence in the pitch for this aspect
- 3-4: mentioned but vague, no specifics
- 5-6: concrete claims with partial support
- 7-8: strong, specific, supported claims
- 9-10: exceptional evidence (numbers, traction, named proof)

Evidence rule: if the pitch gives no concrete evidence for an aspect, cap that
aspect's score at 4 and say so in the rationale.

Return ONLY valid JSON matching this schema, no prose, no markdown fences:
{
  "score": number,
  "aspectScores": [
`)
	for i, a := range aspects {
		sep := ","
		if i == len(aspects)-1 {
			sep = ""
		}
		fmt.Fprintf(b, "    {\"aspect\": %q, \"score\": number, \"rationale\": string}%s\n", a, sep)
	}
	b.WriteString(`  ],
  "strengths": [{"point": string, "impact": "High"|"Medium"|"Low"}],
  "improvements": [{"area": string, "priority": "Critical"|"Important"|"Nice to Have", "actionable": string}],
  "summary": string,
  "recommendations": [string]
}

Pitch:
`)
	b.WriteString(content)
	return b.String()
}

// excerpt keeps the opening maxLen bytes of s; the feedback prompt only needs
// the pitch framing, not the full content.
func excerpt(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// buildFeedbackPrompt renders the second-pass prompt that synthesizes narrative
// feedback across all criterion evaluations.
func buildFeedbackPrompt(content string, evaluations []domain.StructuredEvaluation) string {
	b := &strings.Builder{}
	b.WriteString("You are a startup pitch evaluator synthesizing an overall investment view.\n\nCriterion scores:\n")
	for _, ev := range evaluations {
		fmt.Fprintf(b, "- %s: %.2f/10\n", ev.Criteria, ev.Score)
	}
	b.WriteString("\nPitch excerpt:\n")
	b.WriteString(excerpt(content, feedbackExcerptChars))
	b.WriteString(`

Return ONLY valid JSON matching this schema, no prose, no markdown fences:
{
  "overallAssessment": string,
  "investmentThesis": {"recommendation": string, "reasoning": string},
  "riskAssessment": {"riskScore": number 1-10 (lower is better), "keyRisks": [string], "mitigation": string},
  "nextSteps": [string],
  "competitivePosition": string,
  "foundersAssessment": {"executionCapability": "Excellent"|"Good"|"Fair"|"Poor", "strengths": [string], "gaps": [string]}
}`)
	return b.String()
}
