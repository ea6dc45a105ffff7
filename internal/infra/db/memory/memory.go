package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/questionlab/qscore/internal/domain/apikeys"
	"github.com/questionlab/qscore/internal/domain/auditlog"
)

// In-memory stores, used when no database is configured and as the test
// fakes for the registry and log ports. Created at process start, torn
// down with the process; no persistence.

type KeyRegistry struct {
	mu   sync.RWMutex
	keys map[string]*apikeys.Record
}

func NewKeyRegistry() *KeyRegistry {
	return &KeyRegistry{keys: make(map[string]*apikeys.Record)}
}

func (r *KeyRegistry) Save(ctx context.Context, rec *apikeys.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.keys[rec.APIKey]; exists {
		return fmt.Errorf("api key already registered")
	}
	cp := *rec
	r.keys[rec.APIKey] = &cp
	return nil
}

func (r *KeyRegistry) Lookup(ctx context.Context, key string) (*apikeys.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.keys[key]
	if !ok {
		return nil, apikeys.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

type AnalysisLogRepository struct {
	mu      sync.RWMutex
	entries []*auditlog.Entry
}

func NewAnalysisLogRepository() *AnalysisLogRepository {
	return &AnalysisLogRepository{}
}

func (r *AnalysisLogRepository) Append(ctx context.Context, e *auditlog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *AnalysisLogRepository) Latest(ctx context.Context, limit int) ([]*auditlog.Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	sorted := make([]*auditlog.Entry, len(r.entries))
	copy(sorted, r.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (r *AnalysisLogRepository) Summary(ctx context.Context, sinceDays int) (*auditlog.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	since := time.Now().AddDate(0, 0, -sinceDays)

	r.mu.RLock()
	defer r.mu.RUnlock()

	sum := &auditlog.Summary{
		ByType:     make(map[string]int64),
		FlagCounts: make(map[string]int64),
	}
	var latencyTotal int64
	for _, e := range r.entries {
		if e.CreatedAt.Before(since) {
			continue
		}
		sum.TotalAnalyses++
		latencyTotal += e.LatencyMS
		sum.ByType[e.QuestionType]++
		for _, f := range e.Flags {
			sum.FlagCounts[f]++
		}
	}
	if sum.TotalAnalyses > 0 {
		sum.AvgLatencyMS = float64(latencyTotal) / float64(sum.TotalAnalyses)
	}
	return sum, nil
}

// Len reports how many entries have been appended.
func (r *AnalysisLogRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
