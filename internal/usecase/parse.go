package usecase

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pistalabs/pista/internal/domain"
)

const fallbackScore = 5.0

// ParseEvaluation turns a raw model response into a typed criterion evaluation.
// It never fails: parser attempts run in order (strict JSON, then line
// heuristics) and any malformed input degrades to a best-effort result with
// defaults. aspectScores always has exactly len(aspects) entries, positionally
// aligned with the criterion's aspect list.
func ParseEvaluation(raw, criterion string, aspects []string) domain.StructuredEvaluation {
	ev, ok := tryJSONEval(raw)
	if !ok {
		ev = tryLineHeuristicEval(raw)
	}
	ev.Criteria = criterion
	ev.Score = deriveScore(ev.Breakdown.AspectScores, ev.Score)
	ev.Breakdown.AspectScores = alignAspectScores(ev.Breakdown.AspectScores, aspects, ev.Score)
	return ev
}

// looseEval mirrors the model's JSON output without trusting its shape.
type looseEval struct {
	Score           json.RawMessage   `json:"score"`
	AspectScores    []looseAspect     `json:"aspectScores"`
	Strengths       []json.RawMessage `json:"strengths"`
	Improvements    []json.RawMessage `json:"improvements"`
	Summary         string            `json:"summary"`
	Analysis        string            `json:"analysis"`
	Recommendations []string          `json:"recommendations"`
}

type looseAspect struct {
	Aspect    string          `json:"aspect"`
	Score     json.RawMessage `json:"score"`
	Rationale string          `json:"rationale"`
}

func tryJSONEval(raw string) (domain.StructuredEvaluation, bool) {
	js, ok := extractFirstJSONObject(raw)
	if !ok {
		return domain.StructuredEvaluation{}, false
	}
	var loose looseEval
	if err := json.Unmarshal([]byte(js), &loose); err != nil {
		return domain.StructuredEvaluation{}, false
	}

	ev := domain.StructuredEvaluation{
		Summary:         loose.Summary,
		Recommendations: loose.Recommendations,
	}
	if ev.Summary == "" {
		ev.Summary = loose.Analysis
	}
	if ev.Recommendations == nil {
		ev.Recommendations = []string{}
	}
	for _, r := range loose.Strengths {
		ev.Breakdown.Strengths = append(ev.Breakdown.Strengths, normalizeStrength(r))
	}
	for _, r := range loose.Improvements {
		ev.Breakdown.Improvements = append(ev.Breakdown.Improvements, normalizeImprovement(r))
	}
	if ev.Breakdown.Strengths == nil {
		ev.Breakdown.Strengths = []domain.Strength{}
	}
	if ev.Breakdown.Improvements == nil {
		ev.Breakdown.Improvements = []domain.Improvement{}
	}
	for _, a := range loose.AspectScores {
		score, finite := asFloat(a.Score)
		if !finite {
			score = math.NaN()
		}
		ev.Breakdown.AspectScores = append(ev.Breakdown.AspectScores, domain.AspectScore{
			Aspect:    a.Aspect,
			Score:     score,
			Rationale: a.Rationale,
		})
	}
	if top, finite := asFloat(loose.Score); finite {
		ev.Score = top
	} else {
		ev.Score = fallbackScore
	}
	return ev, true
}

// normalizeStrength accepts either a bare string or a {point, impact} object,
// defaulting impact to Medium.
func normalizeStrength(raw json.RawMessage) domain.Strength {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return domain.Strength{Point: s, Impact: "Medium"}
	}
	var obj domain.Strength
	if err := json.Unmarshal(raw, &obj); err != nil {
		return domain.Strength{Point: strings.Trim(string(raw), `"`), Impact: "Medium"}
	}
	if obj.Impact == "" {
		obj.Impact = "Medium"
	}
	return obj
}

// normalizeImprovement accepts either a bare string or an {area, priority,
// actionable} object, defaulting priority to Important.
func normalizeImprovement(raw json.RawMessage) domain.Improvement {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return domain.Improvement{Area: s, Priority: "Important"}
	}
	var obj domain.Improvement
	if err := json.Unmarshal(raw, &obj); err != nil {
		return domain.Improvement{Area: strings.Trim(string(raw), `"`), Priority: "Important"}
	}
	if obj.Priority == "" {
		obj.Priority = "Important"
	}
	return obj
}

// tryLineHeuristicEval extracts labelled sections (SCORE:, STRENGTHS:,
// IMPROVEMENTS:, ANALYSIS:) with "- " bullet lines from non-JSON responses.
// Missing sections yield empty slices; a missing score defaults to 5.
func tryLineHeuristicEval(raw string) domain.StructuredEvaluation {
	ev := domain.StructuredEvaluation{
		Score: fallbackScore,
		Breakdown: domain.Breakdown{
			Strengths:    []domain.Strength{},
			Improvements: []domain.Improvement{},
		},
		Recommendations: []string{},
	}
	section := ""
	var analysis []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "SCORE:"):
			if v, err := strconv.ParseFloat(strings.TrimSpace(line[len("SCORE:"):]), 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
				ev.Score = v
			}
			section = ""
		case strings.HasPrefix(upper, "STRENGTHS:"):
			section = "strengths"
		case strings.HasPrefix(upper, "IMPROVEMENTS:"):
			section = "improvements"
		case strings.HasPrefix(upper, "ANALYSIS:"):
			section = "analysis"
			if rest := strings.TrimSpace(line[len("ANALYSIS:"):]); rest != "" {
				analysis = append(analysis, rest)
			}
		case strings.HasPrefix(line, "- "):
			item := strings.TrimSpace(line[2:])
			if item == "" {
				continue
			}
			switch section {
			case "strengths":
				ev.Breakdown.Strengths = append(ev.Breakdown.Strengths, domain.Strength{Point: item, Impact: "Medium"})
			case "improvements":
				ev.Breakdown.Improvements = append(ev.Breakdown.Improvements, domain.Improvement{Area: item, Priority: "Important"})
			case "analysis":
				analysis = append(analysis, item)
			}
		default:
			if section == "analysis" && line != "" {
				analysis = append(analysis, line)
			}
		}
	}
	ev.Summary = strings.Join(analysis, " ")
	return ev
}

// alignAspectScores forces exactly one entry per rubric aspect, positionally
// aligned; missing entries are filled from the criterion-level score.
func alignAspectScores(parsed []domain.AspectScore, aspects []string, topScore float64) []domain.AspectScore {
	out := make([]domain.AspectScore, len(aspects))
	for i, name := range aspects {
		if i < len(parsed) {
			out[i] = parsed[i]
			out[i].Aspect = name
			continue
		}
		out[i] = domain.AspectScore{
			Aspect:    name,
			Score:     clampScore(topScore),
			Rationale: "Not scored by the model; derived from the criterion score.",
		}
	}
	return out
}

// deriveScore recomputes the criterion score as the mean of finite aspect
// scores; if none parse as finite numbers it clamps the model's top-level
// score. The per-aspect entries are clamped in place as well.
func deriveScore(aspectScores []domain.AspectScore, topScore float64) float64 {
	sum, n := 0.0, 0
	for i := range aspectScores {
		s := aspectScores[i].Score
		if math.IsNaN(s) || math.IsInf(s, 0) {
			aspectScores[i].Score = clampScore(fallbackScore)
			continue
		}
		aspectScores[i].Score = clampScore(s)
		sum += aspectScores[i].Score
		n++
	}
	if n > 0 {
		return sum / float64(n)
	}
	return clampScore(topScore)
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallbackScore
	}
	return math.Max(1, math.Min(10, v))
}

// extractFirstJSONObject returns the first balanced {...} block in s.
func extractFirstJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// asFloat reads a JSON value as a finite float, accepting numbers and numeric
// strings.
func asFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	}
	return 0, false
}
