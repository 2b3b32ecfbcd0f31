package domain

import (
	_ "embed"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// AspectsPerCriterion is fixed by the rubric: every criterion scores exactly
// five named aspects.
const AspectsPerCriterion = 5

// defaultWeight applies to criterion names outside the fixed rubric. They
// should not occur; the fallback keeps the aggregator total-ordered anyway.
const defaultWeight = 0.25

// Criterion is one fixed top-level rubric category scored independently.
type Criterion struct {
	Name    string   `yaml:"name"`
	Weight  float64  `yaml:"weight"`
	Aspects []string `yaml:"aspects"`
}

//go:embed rubric.yaml
var rubricYAML []byte

var rubric []Criterion

func init() {
	var doc struct {
		Criteria []Criterion `yaml:"criteria"`
	}
	if err := yaml.Unmarshal(rubricYAML, &doc); err != nil {
		panic(fmt.Sprintf("rubric: %v", err))
	}
	if err := validateRubric(doc.Criteria); err != nil {
		panic(fmt.Sprintf("rubric: %v", err))
	}
	rubric = doc.Criteria
}

func validateRubric(cs []Criterion) error {
	if len(cs) == 0 {
		return fmt.Errorf("no criteria defined")
	}
	total := 0.0
	for _, c := range cs {
		if len(c.Aspects) != AspectsPerCriterion {
			return fmt.Errorf("criterion %q has %d aspects, want %d", c.Name, len(c.Aspects), AspectsPerCriterion)
		}
		total += c.Weight
	}
	if math.Abs(total-1.0) > 1e-9 {
		return fmt.Errorf("criterion weights sum to %v, want 1.0", total)
	}
	return nil
}

// Rubric returns the fixed evaluation criteria in scoring order.
func Rubric() []Criterion { return rubric }

// CriterionWeight returns the aggregation weight for a criterion name, falling
// back to defaultWeight for unknown names.
func CriterionWeight(name string) float64 {
	for _, c := range rubric {
		if c.Name == name {
			return c.Weight
		}
	}
	return defaultWeight
}
