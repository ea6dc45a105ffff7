package override

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/questionlab/qscore/internal/domain/analysis"
)

// Noop is the unconfigured implementation of the override port. It returns
// an empty prediction, which signals "no override available" — distinct
// from an error.
type Noop struct{}

func (Noop) Predict(ctx context.Context, req domain.AnalysisRequest) (*domain.OverridePrediction, error) {
	return &domain.OverridePrediction{}, nil
}

// wirePrediction is the JSON document both providers are prompted to emit.
type wirePrediction struct {
	Difficulty   *string  `json:"difficulty"`
	QualityScore *float64 `json:"quality_score"`
	Explanation  *string  `json:"explanation"`
	Confidence   *float64 `json:"confidence"`
}

// ParsePrediction decodes a model's JSON answer into an override
// prediction, tolerating markdown fences around the object.
func ParsePrediction(raw string) (*domain.OverridePrediction, error) {
	cleaned := stripFences(raw)

	var wire wirePrediction
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, fmt.Errorf("parse override prediction: %w", err)
	}

	pred := &domain.OverridePrediction{
		QualityScore: wire.QualityScore,
		Explanation:  wire.Explanation,
		Confidence:   wire.Confidence,
	}
	if wire.Difficulty != nil {
		switch strings.ToLower(strings.TrimSpace(*wire.Difficulty)) {
		case "easy":
			d := domain.DifficultyEasy
			pred.Difficulty = &d
		case "medium":
			d := domain.DifficultyMedium
			pred.Difficulty = &d
		case "hard":
			d := domain.DifficultyHard
			pred.Difficulty = &d
		}
	}
	if wire.Explanation != nil && strings.TrimSpace(*wire.Explanation) == "" {
		pred.Explanation = nil
	}
	return pred, nil
}

// stripFences removes markdown code fences and anything outside the
// outermost JSON object.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first != -1 && last > first {
		cleaned = cleaned[first : last+1]
	}
	return cleaned
}
