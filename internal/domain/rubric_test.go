package domain

import (
	"math"
	"testing"
)

func TestRubric_FourCriteriaFiveAspects(t *testing.T) {
	cs := Rubric()
	if len(cs) != 4 {
		t.Fatalf("criteria = %d, want 4", len(cs))
	}
	for _, c := range cs {
		if len(c.Aspects) != AspectsPerCriterion {
			t.Fatalf("criterion %q has %d aspects", c.Name, len(c.Aspects))
		}
	}
}

func TestRubric_WeightsSumToOne(t *testing.T) {
	total := 0.0
	for _, c := range Rubric() {
		total += c.Weight
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Fatalf("weights sum to %v", total)
	}
}

func TestCriterionWeight_FixedTable(t *testing.T) {
	cases := map[string]float64{
		"Problem-Solution Fit":    0.30,
		"Business Model & Market": 0.30,
		"Team & Execution":        0.25,
		"Pitch Quality":           0.15,
	}
	for name, want := range cases {
		if got := CriterionWeight(name); got != want {
			t.Fatalf("weight(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestCriterionWeight_UnknownDefaults(t *testing.T) {
	if got := CriterionWeight("No Such Criterion"); got != 0.25 {
		t.Fatalf("got %v, want 0.25", got)
	}
}

func TestEvaluationDoc_IsLegacy(t *testing.T) {
	if (EvaluationDoc{Structured: &StructuredEvaluationData{}}).IsLegacy() {
		t.Fatalf("structured doc reported legacy")
	}
	if !(EvaluationDoc{Legacy: &LegacyEvaluationData{}}).IsLegacy() {
		t.Fatalf("legacy doc not reported legacy")
	}
}
