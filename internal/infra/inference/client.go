package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/questionlab/qscore/internal/domain/analysis"
)

// Client calls the ML inference service. Errors are returned to the
// orchestrator, which treats any failure as "no inference available" and
// falls back to the heuristic scorer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// HealthURL points at the service's health endpoint, for the gateway's
// own health report.
func (c *Client) HealthURL() string {
	return c.baseURL + "/health"
}

type analyzeRequest struct {
	Question string `json:"question"`
}

// Wire types mirror the inference service's response document.
type analyzeResponse struct {
	Success  bool             `json:"success"`
	Error    string           `json:"error,omitempty"`
	Question string           `json:"question"`
	Analysis *analysisPayload `json:"analysis"`
}

type analysisPayload struct {
	Difficulty struct {
		Level       string  `json:"level"`
		Confidence  float64 `json:"confidence"`
		Explanation string  `json:"explanation"`
	} `json:"difficulty"`
	Quality struct {
		Score       float64 `json:"score"`
		Explanation string  `json:"explanation"`
		Grade       string  `json:"grade"`
	} `json:"quality"`
	Flags []struct {
		Key        string `json:"key"`
		Title      string `json:"title"`
		Suggestion string `json:"suggestion"`
		Severity   string `json:"severity"`
	} `json:"flags"`
	FeatureImportance struct {
		Difficulty [][]json.RawMessage `json:"difficulty"`
		Quality    [][]json.RawMessage `json:"quality"`
	} `json:"feature_importance"`
	SuggestedImprovements []string `json:"suggested_improvements"`
}

// Infer scores one question through the ML service.
func (c *Client) Infer(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	body, err := json.Marshal(analyzeRequest{Question: req.Question})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("inference service returned status %d: %s", resp.StatusCode, string(b))
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !out.Success || out.Analysis == nil {
		return nil, fmt.Errorf("inference service rejected question: %s", out.Error)
	}

	return resultFromPayload(req, out.Analysis), nil
}

func resultFromPayload(req domain.AnalysisRequest, p *analysisPayload) *domain.AnalysisResult {
	res := &domain.AnalysisResult{
		Question:     req.Question,
		Subject:      req.Subject,
		QuestionType: req.Type,
		Difficulty:   mapDifficulty(p.Difficulty.Level),
		QualityScore: p.Quality.Score,
		Explanation:  strings.TrimSpace(p.Difficulty.Explanation + " " + p.Quality.Explanation),
		SuggestedFix: strings.Join(p.SuggestedImprovements, " "),
		Source:       "inference",
	}
	for _, f := range p.Flags {
		if f.Title != "" {
			res.Flags = append(res.Flags, strings.ToLower(f.Title))
		}
	}
	res.ShapTokens = append(shapTokens(p.FeatureImportance.Difficulty), shapTokens(p.FeatureImportance.Quality)...)
	return res
}

func mapDifficulty(level string) domain.Difficulty {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "hard":
		return domain.DifficultyHard
	case "medium":
		return domain.DifficultyMedium
	default:
		return domain.DifficultyEasy
	}
}

// shapTokens decodes the service's (name, weight) tuples, which arrive as
// two-element JSON arrays.
func shapTokens(pairs [][]json.RawMessage) []domain.ShapToken {
	var out []domain.ShapToken
	for _, pair := range pairs {
		if len(pair) != 2 {
			continue
		}
		var token string
		var weight float64
		if err := json.Unmarshal(pair[0], &token); err != nil {
			continue
		}
		if err := json.Unmarshal(pair[1], &weight); err != nil {
			continue
		}
		out = append(out, domain.ShapToken{Token: token, Weight: weight})
	}
	return out
}
