package usecase

import (
	"strings"
	"testing"

	"github.com/pistalabs/pista/internal/domain"
	"github.com/pistalabs/pista/pkg/textx"
)

func TestBuildContent_EmptyQuestions(t *testing.T) {
	got := BuildContent("We fix procurement.", nil)
	if got != "We fix procurement." {
		t.Fatalf("got %q", got)
	}
	if strings.Contains(got, "Q&A") {
		t.Fatalf("empty questions must not render a Q&A section")
	}
}

func TestBuildContent_FormatsQA(t *testing.T) {
	got := BuildContent("Pitch.", []domain.QuestionAnswer{
		{Text: "What is the TAM?", Answer: "$4B"},
		{Text: "Who pays?", Answer: "Procurement teams"},
	})
	for _, want := range []string{"Q1: What is the TAM?", "A1: $4B", "Q2: Who pays?", "A2: Procurement teams"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in %q", want, got)
		}
	}
}

func TestBuildContent_Deterministic(t *testing.T) {
	text := strings.Repeat("long pitch body ", 1000)
	qs := []domain.QuestionAnswer{{Text: "q", Answer: "a"}}
	if BuildContent(text, qs) != BuildContent(text, qs) {
		t.Fatalf("identical inputs must yield identical output")
	}
}

func TestBuildContent_TruncatesToBudget(t *testing.T) {
	text := strings.Repeat("a", 10000)
	got := BuildContent(text, nil)
	if len(got) != maxContentChars+len(textx.Ellipsis) {
		t.Fatalf("len = %d, want %d", len(got), maxContentChars+len(textx.Ellipsis))
	}
	if !strings.HasPrefix(got, "aaaa") || !strings.HasSuffix(got, "aaaa") {
		t.Fatalf("head and tail must survive truncation")
	}
}

func TestBuildContent_ShortUnmodified(t *testing.T) {
	text := "short pitch"
	if got := BuildContent(text, nil); got != text {
		t.Fatalf("got %q", got)
	}
}
