package analysis

import "context"

// SignalProvider port (NLP collaborator). Implementations degrade to a
// regex fallback rather than failing the caller.
type SignalProvider interface {
	Signals(ctx context.Context, text string) (*NLSignals, error)
}

// InferenceProvider port (primary ML collaborator). A nil result with nil
// error means the provider had nothing to offer; errors are absorbed by
// the orchestrator as "unavailable".
type InferenceProvider interface {
	Infer(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)
}

// OverrideProvider port (higher-trust model). An empty prediction means
// no override is available, which is distinct from an error.
type OverrideProvider interface {
	Predict(ctx context.Context, req AnalysisRequest) (*OverridePrediction, error)
}
