package inference

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	domain "github.com/questionlab/qscore/internal/domain/analysis"
)

const serviceResponse = `{
	"success": true,
	"question": "What is recursion?",
	"analysis": {
		"difficulty": {"level": "Hard", "confidence": 0.91, "explanation": "Demands abstraction."},
		"quality": {"score": 72.5, "explanation": "Clear but terse.", "grade": "B"},
		"flags": [
			{"key": "needs_context", "title": "Needs More Context", "suggestion": "Add a scenario.", "severity": "low"}
		],
		"feature_importance": {
			"difficulty": [["recursion", 0.8], ["what", -0.1]],
			"quality": [["?", 0.3]]
		},
		"suggested_improvements": ["Add a concrete example.", "Name the language."]
	}
}`

func testRequest() domain.AnalysisRequest {
	return domain.AnalysisRequest{Question: "What is recursion?", Subject: "CS", Type: domain.TypeMCQ}
}

func TestInferMapsServiceResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			t.Errorf("path = %s, want /analyze", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(serviceResponse))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	res, err := c.Infer(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("infer: %v", err)
	}

	if res.Difficulty != domain.DifficultyHard {
		t.Errorf("difficulty = %s, want Hard", res.Difficulty)
	}
	if res.QualityScore != 72.5 {
		t.Errorf("quality = %v, want 72.5", res.QualityScore)
	}
	if len(res.Flags) != 1 || res.Flags[0] != "needs more context" {
		t.Errorf("flags = %v, want lowercased title", res.Flags)
	}
	if res.SuggestedFix != "Add a concrete example. Name the language." {
		t.Errorf("suggested fix = %q", res.SuggestedFix)
	}
	if len(res.ShapTokens) != 3 {
		t.Fatalf("shap tokens = %d, want 3", len(res.ShapTokens))
	}
	if res.ShapTokens[0].Token != "recursion" || res.ShapTokens[0].Weight != 0.8 {
		t.Errorf("first shap token = %+v", res.ShapTokens[0])
	}
	if res.Source != "inference" {
		t.Errorf("source = %q, want inference", res.Source)
	}
}

func TestInferNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	if _, err := c.Infer(context.Background(), testRequest()); err == nil {
		t.Error("expected error on 500")
	}
}

func TestInferRejectedQuestion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "Question must be at least 3 characters long"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	if _, err := c.Infer(context.Background(), testRequest()); err == nil {
		t.Error("expected error when the service rejects the question")
	}
}

func TestInferServiceDown(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", zap.NewNop())
	if _, err := c.Infer(context.Background(), testRequest()); err == nil {
		t.Error("expected error when the service is unreachable")
	}
}

func TestHealthURL(t *testing.T) {
	c := NewClient("http://localhost:5000/", zap.NewNop())
	if got := c.HealthURL(); got != "http://localhost:5000/health" {
		t.Errorf("health url = %q", got)
	}
}
