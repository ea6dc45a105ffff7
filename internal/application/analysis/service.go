package analysis

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/questionlab/qscore/internal/application"
	domain "github.com/questionlab/qscore/internal/domain/analysis"
	"github.com/questionlab/qscore/internal/domain/auditlog"
	"github.com/questionlab/qscore/internal/middleware"
)

// MaxBatchSize caps one batch call.
const MaxBatchSize = 100

// LogSink receives one entry per completed analysis, fire-and-forget.
type LogSink interface {
	Emit(e *auditlog.Entry)
}

// Service implements the scoring orchestration: a single logical step per
// call, no retries, no queuing.
type Service struct {
	Signals   domain.SignalProvider
	Inference domain.InferenceProvider
	Override  domain.OverrideProvider
	Sink      LogSink
	Clock     application.Clock
	Logger    *zap.Logger
}

// Analyze scores one request. Precedence is fixed: an inference result
// always beats the heuristic; NL signals only ever add flags and keywords;
// the override model applies last and overwrites whatever it carries.
func (s *Service) Analyze(ctx context.Context, apiKey string, req domain.AnalysisRequest) *domain.AnalysisResult {
	start := s.Clock.Now()

	req.Question = domain.NormalizeText(req.Question)
	if req.Type != domain.TypeMCQ && req.Type != domain.TypeTheory {
		req.Type = domain.TypeMCQ
	}

	// The only concurrency in the pipeline: one fan-out of exactly two
	// independent calls, joined before anything else happens.
	var (
		wg       sync.WaitGroup
		sig      *domain.NLSignals
		sigErr   error
		inferred *domain.AnalysisResult
		infErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sig, sigErr = s.Signals.Signals(ctx, req.Question)
	}()
	go func() {
		defer wg.Done()
		if s.Inference == nil {
			return
		}
		inferred, infErr = s.Inference.Infer(ctx, req)
	}()
	wg.Wait()

	var result *domain.AnalysisResult
	if infErr != nil || inferred == nil {
		if infErr != nil {
			s.Logger.Debug("inference unavailable, using heuristic scorer", zap.Error(infErr))
		}
		result = domain.HeuristicScore(req.Question, req.Subject, req.Type)
		middleware.IncrementHeuristicFallbacks()
	} else {
		result = inferred
		result.Question = req.Question
		result.Subject = req.Subject
		result.QuestionType = req.Type
	}

	if sigErr != nil {
		s.Logger.Debug("nl signals unavailable", zap.Error(sigErr))
	} else {
		result.ApplySignals(sig)
	}

	// Override runs strictly after the join; its fields have final say.
	if pred, err := s.Override.Predict(ctx, req); err != nil {
		s.Logger.Debug("override model unavailable", zap.Error(err))
	} else if !pred.Empty() {
		result.ApplyOverride(pred)
		middleware.IncrementOverridesApplied()
	}

	middleware.IncrementAnalyses()

	latency := s.Clock.Now().Sub(start).Milliseconds()
	s.Sink.Emit(&auditlog.Entry{
		ID:           uuid.NewString(),
		APIKey:       apiKey,
		Subject:      req.Subject,
		QuestionType: string(req.Type),
		LatencyMS:    latency,
		Flags:        result.Flags,
		CreatedAt:    start,
	})

	return result
}

// BatchItem is one outcome in a batch response; exactly one of Result and
// Error is set.
type BatchItem struct {
	Result *domain.AnalysisResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// AnalyzeBatch scores up to MaxBatchSize requests sequentially. Invalid
// items become per-item errors rather than failing the whole batch.
func (s *Service) AnalyzeBatch(ctx context.Context, apiKey string, reqs []domain.AnalysisRequest) []BatchItem {
	items := make([]BatchItem, 0, len(reqs))
	for _, req := range reqs {
		if err := domain.ValidateQuestion(req.Question); err != nil {
			items = append(items, BatchItem{Error: err.Error()})
			continue
		}
		items = append(items, BatchItem{Result: s.Analyze(ctx, apiKey, req)})
	}
	return items
}
