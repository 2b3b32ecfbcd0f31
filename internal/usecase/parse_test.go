package usecase

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

var testAspects = []string{"A1", "A2", "A3", "A4", "A5"}

func okJSON(scores [5]float64) string {
	parts := make([]string, 5)
	for i, s := range scores {
		parts[i] = fmt.Sprintf(`{"aspect": "A%d", "score": %g, "rationale": "r%d"}`, i+1, s, i+1)
	}
	return fmt.Sprintf(`{
		"score": 3,
		"aspectScores": [%s],
		"strengths": [{"point": "clear problem", "impact": "High"}, "bare strength"],
		"improvements": [{"area": "gtm"}, "bare improvement"],
		"summary": "solid",
		"recommendations": ["do more"]
	}`, strings.Join(parts, ","))
}

func TestParseEvaluation_ScoreIsMeanOfAspects(t *testing.T) {
	ev := ParseEvaluation(okJSON([5]float64{8, 8, 8, 8, 8}), "Team & Execution", testAspects)
	if ev.Score != 8 {
		t.Fatalf("score = %v, want 8 (mean wins over top-level score)", ev.Score)
	}
	ev = ParseEvaluation(okJSON([5]float64{6, 7, 8, 9, 10}), "Team & Execution", testAspects)
	if ev.Score != 8 {
		t.Fatalf("score = %v, want 8", ev.Score)
	}
}

func TestParseEvaluation_NormalizesLooseShapes(t *testing.T) {
	ev := ParseEvaluation(okJSON([5]float64{5, 5, 5, 5, 5}), "Pitch Quality", testAspects)
	if len(ev.Breakdown.Strengths) != 2 {
		t.Fatalf("strengths = %d", len(ev.Breakdown.Strengths))
	}
	if ev.Breakdown.Strengths[1].Point != "bare strength" || ev.Breakdown.Strengths[1].Impact != "Medium" {
		t.Fatalf("bare strength not normalized: %+v", ev.Breakdown.Strengths[1])
	}
	if ev.Breakdown.Improvements[0].Priority != "Important" {
		t.Fatalf("missing priority should default to Important: %+v", ev.Breakdown.Improvements[0])
	}
	if ev.Breakdown.Improvements[1].Area != "bare improvement" {
		t.Fatalf("bare improvement not normalized: %+v", ev.Breakdown.Improvements[1])
	}
	if ev.Summary != "solid" || len(ev.Recommendations) != 1 {
		t.Fatalf("summary/recommendations lost")
	}
}

func TestParseEvaluation_FallsBackToModelScore(t *testing.T) {
	raw := `{"score": 7, "summary": "no aspects here"}`
	ev := ParseEvaluation(raw, "Pitch Quality", testAspects)
	if ev.Score != 7 {
		t.Fatalf("score = %v, want 7", ev.Score)
	}
	if len(ev.Breakdown.AspectScores) != len(testAspects) {
		t.Fatalf("aspect scores = %d, want %d", len(ev.Breakdown.AspectScores), len(testAspects))
	}
}

func TestParseEvaluation_ClampsOutOfRange(t *testing.T) {
	raw := `{"score": 42}`
	ev := ParseEvaluation(raw, "Pitch Quality", testAspects)
	if ev.Score != 10 {
		t.Fatalf("score = %v, want 10", ev.Score)
	}
	raw = `{"score": -3}`
	ev = ParseEvaluation(raw, "Pitch Quality", testAspects)
	if ev.Score != 1 {
		t.Fatalf("score = %v, want 1", ev.Score)
	}
}

func TestParseEvaluation_MalformedNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"not json at all",
		"{broken",
		`{"score": "not a number"}`,
		"[1,2,3]",
		strings.Repeat("{", 1000),
	}
	for _, raw := range inputs {
		ev := ParseEvaluation(raw, "Team & Execution", testAspects)
		if ev.Score < 1 || ev.Score > 10 || math.IsNaN(ev.Score) {
			t.Fatalf("score out of range for %q: %v", raw, ev.Score)
		}
		if len(ev.Breakdown.AspectScores) != len(testAspects) {
			t.Fatalf("aspect count = %d for %q", len(ev.Breakdown.AspectScores), raw)
		}
		if ev.Breakdown.Strengths == nil || ev.Breakdown.Improvements == nil {
			t.Fatalf("nil slices for %q", raw)
		}
	}
}

func TestParseEvaluation_LineHeuristicFallback(t *testing.T) {
	raw := `The model decided to write prose instead.
SCORE: 6.5
STRENGTHS:
- clear founding story
- strong retention numbers
IMPROVEMENTS:
- pricing unclear
ANALYSIS: Reasonable pitch overall.
`
	ev := ParseEvaluation(raw, "Team & Execution", testAspects)
	if ev.Score != 6.5 {
		t.Fatalf("score = %v, want 6.5", ev.Score)
	}
	if len(ev.Breakdown.Strengths) != 2 || ev.Breakdown.Strengths[0].Point != "clear founding story" {
		t.Fatalf("strengths: %+v", ev.Breakdown.Strengths)
	}
	if ev.Breakdown.Strengths[0].Impact != "Medium" {
		t.Fatalf("fallback strengths default to Medium impact")
	}
	if len(ev.Breakdown.Improvements) != 1 || ev.Breakdown.Improvements[0].Priority != "Important" {
		t.Fatalf("improvements: %+v", ev.Breakdown.Improvements)
	}
	if !strings.Contains(ev.Summary, "Reasonable pitch") {
		t.Fatalf("summary: %q", ev.Summary)
	}
}

func TestParseEvaluation_FallbackMissingSections(t *testing.T) {
	ev := ParseEvaluation("just some text", "Pitch Quality", testAspects)
	if ev.Score != 5 {
		t.Fatalf("missing score defaults to 5, got %v", ev.Score)
	}
	if len(ev.Breakdown.Strengths) != 0 || len(ev.Breakdown.Improvements) != 0 {
		t.Fatalf("missing sections should be empty slices")
	}
}

func TestParseEvaluation_RationalePreservedVerbatim(t *testing.T) {
	long := strings.Repeat("because ", 200)
	raw := fmt.Sprintf(`{"aspectScores": [{"aspect": "A1", "score": 8, "rationale": %q}]}`, long)
	ev := ParseEvaluation(raw, "Pitch Quality", testAspects)
	if ev.Breakdown.AspectScores[0].Rationale != long {
		t.Fatalf("rationale must not be truncated")
	}
}

func Test_extractFirstJSONObject(t *testing.T) {
	out, ok := extractFirstJSONObject(`Sure, here you go: {"a": {"b": 1}, "c": "with } brace"} done`)
	if !ok {
		t.Fatalf("expected ok")
	}
	if out != `{"a": {"b": 1}, "c": "with } brace"}` {
		t.Fatalf("got %q", out)
	}
	if _, ok := extractFirstJSONObject("no braces"); ok {
		t.Fatalf("expected not ok")
	}
	if _, ok := extractFirstJSONObject("{unbalanced"); ok {
		t.Fatalf("expected not ok for unbalanced")
	}
}

func Test_asFloat(t *testing.T) {
	if v, ok := asFloat([]byte(`7.5`)); !ok || v != 7.5 {
		t.Fatalf("number: %v %v", v, ok)
	}
	if v, ok := asFloat([]byte(`"8"`)); !ok || v != 8 {
		t.Fatalf("numeric string: %v %v", v, ok)
	}
	if _, ok := asFloat([]byte(`"abc"`)); ok {
		t.Fatalf("non-numeric string should fail")
	}
	if _, ok := asFloat(nil); ok {
		t.Fatalf("empty should fail")
	}
}

func TestParseEvaluation_IgnoresNonFiniteAspects(t *testing.T) {
	raw := `{"score": 4, "aspectScores": [
		{"aspect": "A1", "score": 9, "rationale": "good"},
		{"aspect": "A2", "score": "n/a", "rationale": "none"}
	]}`
	ev := ParseEvaluation(raw, "Pitch Quality", testAspects)
	// only the finite aspect participates in the mean
	if ev.Score != 9 {
		t.Fatalf("score = %v, want 9", ev.Score)
	}
	for _, as := range ev.Breakdown.AspectScores {
		if as.Score < 1 || as.Score > 10 {
			t.Fatalf("aspect score out of range: %+v", as)
		}
	}
}

func TestParseEvaluation_AnalysisAliasForSummary(t *testing.T) {
	raw := `{"score": 6, "analysis": "used the analysis key"}`
	ev := ParseEvaluation(raw, "Pitch Quality", testAspects)
	if ev.Summary != "used the analysis key" {
		t.Fatalf("summary = %q", ev.Summary)
	}
}
