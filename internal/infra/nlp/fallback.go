package nlp

import (
	"context"
	"regexp"
	"strings"

	domain "github.com/questionlab/qscore/internal/domain/analysis"
	"github.com/questionlab/qscore/internal/middleware"
)

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
	passiveRe       = regexp.MustCompile(`(?i)\b(is|are|was|were|be|been|being)\s+\w+(ed|en)\b`)
)

// FallbackAnalyzer produces NL signals from cheap regex heuristics. It is
// the unconfigured implementation of the signal port and the degrade path
// of the live client; it never fails.
type FallbackAnalyzer struct{}

func NewFallbackAnalyzer() *FallbackAnalyzer { return &FallbackAnalyzer{} }

func (a *FallbackAnalyzer) Signals(ctx context.Context, text string) (*domain.NLSignals, error) {
	middleware.IncrementSignalFallbacks()

	wc := domain.WordCount(text)
	complexity := float64(wc) / 40.0
	if complexity > 1 {
		complexity = 1
	}

	return &domain.NLSignals{
		SentenceCount: countSentences(text),
		PassiveVoice:  passiveRe.MatchString(text),
		Complexity:    complexity,
		Keywords:      domain.ExtractKeywords(text),
	}, nil
}

func countSentences(text string) int {
	n := 0
	for _, s := range sentenceSplitRe.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	if n == 0 {
		n = 1
	}
	return n
}
