package override

import (
	"context"
	"testing"

	domain "github.com/questionlab/qscore/internal/domain/analysis"
)

func TestParsePredictionFullDocument(t *testing.T) {
	pred, err := ParsePrediction(`{"difficulty": "Hard", "quality_score": 42, "explanation": "Multi-step reasoning.", "confidence": 0.8}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pred.Difficulty == nil || *pred.Difficulty != domain.DifficultyHard {
		t.Errorf("difficulty = %v, want Hard", pred.Difficulty)
	}
	if pred.QualityScore == nil || *pred.QualityScore != 42 {
		t.Errorf("quality = %v, want 42", pred.QualityScore)
	}
	if pred.Explanation == nil || *pred.Explanation != "Multi-step reasoning." {
		t.Errorf("explanation = %v", pred.Explanation)
	}
}

func TestParsePredictionMarkdownFenced(t *testing.T) {
	raw := "```json\n{\"difficulty\": \"medium\", \"quality_score\": null, \"explanation\": null, \"confidence\": null}\n```"
	pred, err := ParsePrediction(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pred.Difficulty == nil || *pred.Difficulty != domain.DifficultyMedium {
		t.Errorf("difficulty = %v, want Medium", pred.Difficulty)
	}
	if pred.QualityScore != nil {
		t.Errorf("null quality must stay absent, got %v", *pred.QualityScore)
	}
}

func TestParsePredictionProseAroundObject(t *testing.T) {
	pred, err := ParsePrediction(`Here is my assessment: {"difficulty": "easy", "quality_score": 90, "explanation": "Simple recall.", "confidence": 0.95} Hope that helps.`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pred.Difficulty == nil || *pred.Difficulty != domain.DifficultyEasy {
		t.Errorf("difficulty = %v, want Easy", pred.Difficulty)
	}
}

func TestParsePredictionZeroScorePresent(t *testing.T) {
	pred, err := ParsePrediction(`{"difficulty": null, "quality_score": 0, "explanation": null, "confidence": 0.99}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pred.QualityScore == nil || *pred.QualityScore != 0 {
		t.Errorf("quality = %v, a present zero must survive parsing", pred.QualityScore)
	}
	if pred.Empty() {
		t.Error("a prediction carrying a zero score is not empty")
	}
}

func TestParsePredictionUnknownDifficultyIgnored(t *testing.T) {
	pred, err := ParsePrediction(`{"difficulty": "impossible", "quality_score": 50, "explanation": null, "confidence": null}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pred.Difficulty != nil {
		t.Errorf("unknown difficulty should be dropped, got %v", *pred.Difficulty)
	}
}

func TestParsePredictionBlankExplanationDropped(t *testing.T) {
	pred, err := ParsePrediction(`{"difficulty": null, "quality_score": null, "explanation": "  ", "confidence": null}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pred.Explanation != nil {
		t.Errorf("blank explanation should be dropped, got %q", *pred.Explanation)
	}
	if !pred.Empty() {
		t.Error("prediction should be empty after dropping the blank explanation")
	}
}

func TestParsePredictionGarbage(t *testing.T) {
	if _, err := ParsePrediction("I cannot answer that."); err == nil {
		t.Error("expected error for non-JSON output")
	}
}

func TestNoopPredictsNothing(t *testing.T) {
	pred, err := Noop{}.Predict(context.Background(), domain.AnalysisRequest{Question: "What is recursion?"})
	if err != nil {
		t.Fatalf("noop: %v", err)
	}
	if !pred.Empty() {
		t.Errorf("noop prediction must be empty: %+v", pred)
	}
}
