package googlenl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	language "google.golang.org/api/language/v1"
	"google.golang.org/api/option"

	domain "github.com/questionlab/qscore/internal/domain/analysis"
	"github.com/questionlab/qscore/internal/infra/nlp"
)

// Client is the configured implementation of the signal port, backed by
// the Cloud Natural Language API. Any upstream failure degrades to the
// regex fallback rather than surfacing to the orchestrator.
type Client struct {
	svc      *language.Service
	fallback *nlp.FallbackAnalyzer
	logger   *zap.Logger
}

func NewClient(ctx context.Context, apiKey string, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("natural language API key is required")
	}
	svc, err := language.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create language service: %w", err)
	}
	return &Client{
		svc:      svc,
		fallback: nlp.NewFallbackAnalyzer(),
		logger:   logger,
	}, nil
}

func (c *Client) Signals(ctx context.Context, text string) (*domain.NLSignals, error) {
	req := &language.AnnotateTextRequest{
		Document: &language.Document{
			Content: text,
			Type:    "PLAIN_TEXT",
		},
		Features: &language.AnnotateTextRequestFeatures{
			ExtractSyntax:            true,
			ExtractEntities:          true,
			ExtractDocumentSentiment: true,
		},
		EncodingType: "UTF8",
	}

	resp, err := c.svc.Documents.AnnotateText(req).Context(ctx).Do()
	if err != nil {
		c.logger.Warn("natural language API unavailable, using regex fallback", zap.Error(err))
		return c.fallback.Signals(ctx, text)
	}

	return signalsFromResponse(resp), nil
}

func signalsFromResponse(resp *language.AnnotateTextResponse) *domain.NLSignals {
	sig := &domain.NLSignals{
		SentenceCount: len(resp.Sentences),
	}
	if sig.SentenceCount == 0 {
		sig.SentenceCount = 1
	}

	var depSum float64
	maxDepth := 0
	for i, tok := range resp.Tokens {
		if tok.PartOfSpeech != nil && tok.PartOfSpeech.Voice == "PASSIVE" {
			sig.PassiveVoice = true
		}
		if tok.DependencyEdge != nil {
			dist := int(tok.DependencyEdge.HeadTokenIndex) - i
			if dist < 0 {
				dist = -dist
			}
			depSum += float64(dist)
			if dist > maxDepth {
				maxDepth = dist
			}
		}
	}
	if n := len(resp.Tokens); n > 0 {
		sig.AvgDepDist = depSum / float64(n)
		// Longer sentences with wider dependency spans read as more complex.
		sig.Complexity = clamp01(float64(n) / float64(sig.SentenceCount) / 25.0)
	}
	sig.SyntaxDepth = maxDepth

	sig.Entities, sig.Keywords = entityKeywords(resp.Entities)
	if resp.DocumentSentiment != nil {
		sig.Sentiment = resp.DocumentSentiment.Score
	}
	return sig
}

// entityKeywords ranks entities by salience and reuses the top names as
// NL-derived keywords.
func entityKeywords(entities []*language.Entity) ([]string, []string) {
	sorted := make([]*language.Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Salience > sorted[j].Salience
	})

	var names, keywords []string
	for i, e := range sorted {
		if i == 5 {
			break
		}
		names = append(names, e.Name)
		keywords = append(keywords, strings.ToLower(e.Name))
	}
	return names, keywords
}

func clamp01(f float64) float64 {
	if f > 1 {
		return 1
	}
	if f < 0 {
		return 0
	}
	return f
}
