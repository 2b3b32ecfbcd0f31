package usecase

import (
	"fmt"
	"strings"

	"github.com/pistalabs/pista/internal/domain"
	"github.com/pistalabs/pista/pkg/textx"
)

// maxContentChars bounds the pitch content embedded into each criterion prompt.
// Longer content keeps its opening framing and closing Q&A context; the middle
// is dropped.
const maxContentChars = 6000

// feedbackExcerptChars bounds the pitch excerpt embedded into the narrative
// feedback prompt.
const feedbackExcerptChars = 1000

// BuildContent concatenates the pitch text with formatted Q&A pairs and bounds
// the result to the prompt budget. Deterministic: identical inputs always yield
// the identical string.
func BuildContent(text string, questions []domain.QuestionAnswer) string {
	b := &strings.Builder{}
	b.WriteString(strings.TrimSpace(text))
	if len(questions) > 0 {
		b.WriteString("\n\nFollow-up Q&A:\n")
		for i, qa := range questions {
			fmt.Fprintf(b, "Q%d: %s\nA%d: %s\n", i+1, strings.TrimSpace(qa.Text), i+1, strings.TrimSpace(qa.Answer))
		}
	}
	return textx.TruncateMiddle(b.String(), maxContentChars)
}
