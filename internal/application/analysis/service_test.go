package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	domain "github.com/questionlab/qscore/internal/domain/analysis"
	"github.com/questionlab/qscore/internal/domain/auditlog"
)

type fakeSignals struct {
	sig *domain.NLSignals
	err error
}

func (f fakeSignals) Signals(ctx context.Context, text string) (*domain.NLSignals, error) {
	return f.sig, f.err
}

type fakeInference struct {
	res *domain.AnalysisResult
	err error
}

func (f fakeInference) Infer(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	return f.res, f.err
}

type fakeOverride struct {
	pred *domain.OverridePrediction
	err  error
}

func (f fakeOverride) Predict(ctx context.Context, req domain.AnalysisRequest) (*domain.OverridePrediction, error) {
	return f.pred, f.err
}

type captureSink struct {
	mu      sync.Mutex
	entries []*auditlog.Entry
}

func (s *captureSink) Emit(e *auditlog.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

// stepClock advances a fixed amount per Now call so latency is predictable.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func newService(sig domain.SignalProvider, inf domain.InferenceProvider, ovr domain.OverrideProvider, sink *captureSink) *Service {
	return &Service{
		Signals:   sig,
		Inference: inf,
		Override:  ovr,
		Sink:      sink,
		Clock:     &stepClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), step: 5 * time.Millisecond},
		Logger:    zap.NewNop(),
	}
}

func emptyOverride() fakeOverride {
	return fakeOverride{pred: &domain.OverridePrediction{}}
}

var testReq = domain.AnalysisRequest{
	Question: "What is recursion?",
	Subject:  "CS",
	Type:     domain.TypeMCQ,
}

func TestAnalyzeFallsBackToHeuristicOnInferenceError(t *testing.T) {
	sink := &captureSink{}
	svc := newService(
		fakeSignals{sig: &domain.NLSignals{SentenceCount: 1}},
		fakeInference{err: errors.New("connection refused")},
		emptyOverride(),
		sink,
	)

	res := svc.Analyze(context.Background(), "qs_k", testReq)

	if res.Source != "heuristic" {
		t.Errorf("source = %q, want heuristic", res.Source)
	}
	if res.Difficulty != domain.DifficultyEasy {
		t.Errorf("difficulty = %s, want Easy", res.Difficulty)
	}
}

func TestAnalyzeWithoutInferenceProvider(t *testing.T) {
	sink := &captureSink{}
	svc := newService(fakeSignals{sig: &domain.NLSignals{}}, nil, emptyOverride(), sink)

	res := svc.Analyze(context.Background(), "qs_k", testReq)
	if res.Source != "heuristic" {
		t.Errorf("source = %q, want heuristic", res.Source)
	}
}

func TestAnalyzeInferenceBeatsHeuristic(t *testing.T) {
	sink := &captureSink{}
	inferred := &domain.AnalysisResult{
		Difficulty:   domain.DifficultyHard,
		QualityScore: 88,
		Explanation:  "model explanation",
		Source:       "inference",
	}
	svc := newService(fakeSignals{sig: &domain.NLSignals{}}, fakeInference{res: inferred}, emptyOverride(), sink)

	res := svc.Analyze(context.Background(), "qs_k", testReq)

	if res.Source != "inference" {
		t.Errorf("source = %q, want inference", res.Source)
	}
	if res.Difficulty != domain.DifficultyHard || res.QualityScore != 88 {
		t.Errorf("inference result not carried through: %+v", res)
	}
	if res.Question != "What is recursion?" || res.Subject != "CS" || res.QuestionType != domain.TypeMCQ {
		t.Errorf("request fields not stamped onto inference result: %+v", res)
	}
}

func TestAnalyzeSignalsAddFlagsOnly(t *testing.T) {
	sink := &captureSink{}
	svc := newService(
		fakeSignals{sig: &domain.NLSignals{PassiveVoice: true, SentenceCount: 5}},
		nil,
		emptyOverride(),
		sink,
	)

	res := svc.Analyze(context.Background(), "qs_k", testReq)

	base := domain.HeuristicScore("What is recursion?", "CS", domain.TypeMCQ)
	if res.QualityScore != base.QualityScore {
		t.Errorf("quality = %v, signals must not change it from %v", res.QualityScore, base.QualityScore)
	}
	wantFlags := append(base.Flags, domain.FlagPassiveVoice, domain.FlagMultipleClauses)
	if len(res.Flags) != len(wantFlags) {
		t.Errorf("flags = %v, want %v", res.Flags, wantFlags)
	}
}

func TestAnalyzeSignalErrorIsAbsorbed(t *testing.T) {
	sink := &captureSink{}
	svc := newService(fakeSignals{err: errors.New("nl provider down")}, nil, emptyOverride(), sink)

	res := svc.Analyze(context.Background(), "qs_k", testReq)

	base := domain.HeuristicScore("What is recursion?", "CS", domain.TypeMCQ)
	if len(res.Flags) != len(base.Flags) {
		t.Errorf("flags = %v, want heuristic flags only %v", res.Flags, base.Flags)
	}
}

func TestAnalyzeOverrideAppliesLast(t *testing.T) {
	sink := &captureSink{}
	inferred := &domain.AnalysisResult{
		Difficulty:   domain.DifficultyMedium,
		QualityScore: 80,
		Source:       "inference",
	}
	d := domain.DifficultyHard
	svc := newService(
		fakeSignals{sig: &domain.NLSignals{}},
		fakeInference{res: inferred},
		fakeOverride{pred: &domain.OverridePrediction{Difficulty: &d}},
		sink,
	)

	res := svc.Analyze(context.Background(), "qs_k", testReq)

	if res.Difficulty != domain.DifficultyHard {
		t.Errorf("difficulty = %s, override must win", res.Difficulty)
	}
	if res.QualityScore != 80 {
		t.Errorf("quality = %v, absent override field must keep inference value", res.QualityScore)
	}
	if res.Source != "override" {
		t.Errorf("source = %q, want override", res.Source)
	}
}

func TestAnalyzeOverrideErrorIsAbsorbed(t *testing.T) {
	sink := &captureSink{}
	svc := newService(
		fakeSignals{sig: &domain.NLSignals{}},
		nil,
		fakeOverride{err: errors.New("model timeout")},
		sink,
	)

	res := svc.Analyze(context.Background(), "qs_k", testReq)
	if res.Source != "heuristic" {
		t.Errorf("source = %q, override failure must leave base result", res.Source)
	}
}

func TestAnalyzeEmitsLogEntry(t *testing.T) {
	sink := &captureSink{}
	svc := newService(fakeSignals{sig: &domain.NLSignals{}}, nil, emptyOverride(), sink)

	res := svc.Analyze(context.Background(), "qs_key", testReq)

	if len(sink.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(sink.entries))
	}
	e := sink.entries[0]
	if e.ID == "" {
		t.Error("entry ID must be set")
	}
	if e.APIKey != "qs_key" {
		t.Errorf("entry api key = %q, want qs_key", e.APIKey)
	}
	if e.QuestionType != string(domain.TypeMCQ) {
		t.Errorf("entry type = %q, want MCQ", e.QuestionType)
	}
	if e.LatencyMS != 5 {
		t.Errorf("latency = %d, want 5", e.LatencyMS)
	}
	if len(e.Flags) != len(res.Flags) {
		t.Errorf("entry flags = %v, want result flags %v", e.Flags, res.Flags)
	}
}

func TestAnalyzeBatchMixedValidity(t *testing.T) {
	sink := &captureSink{}
	svc := newService(fakeSignals{sig: &domain.NLSignals{}}, nil, emptyOverride(), sink)

	items := svc.AnalyzeBatch(context.Background(), "qs_k", []domain.AnalysisRequest{
		{Question: "What is recursion?", Subject: "CS", Type: domain.TypeMCQ},
		{Question: "ab", Subject: "CS", Type: domain.TypeMCQ},
		{Question: "Explain photosynthesis.", Subject: "Biology", Type: domain.TypeTheory},
	})

	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	if items[0].Result == nil || items[0].Error != "" {
		t.Errorf("item 0 should be a result: %+v", items[0])
	}
	if items[1].Result != nil || items[1].Error == "" {
		t.Errorf("item 1 should be an error: %+v", items[1])
	}
	if items[2].Result == nil {
		t.Errorf("item 2 should be a result: %+v", items[2])
	}
	if len(sink.entries) != 2 {
		t.Errorf("entries = %d, only valid items should be logged", len(sink.entries))
	}
}
