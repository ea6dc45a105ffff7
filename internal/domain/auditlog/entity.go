package auditlog

import "time"

// Entry is one append-only analysis log record, kept for operational
// visibility only; it is not part of the response contract.
type Entry struct {
	ID           string    `json:"id"`
	APIKey       string    `json:"api_key"`
	Subject      string    `json:"subject,omitempty"`
	QuestionType string    `json:"question_type"`
	LatencyMS    int64     `json:"latency_ms"`
	Flags        []string  `json:"flags"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary aggregates log entries over a window.
type Summary struct {
	TotalAnalyses int64            `json:"total_analyses"`
	AvgLatencyMS  float64          `json:"avg_latency_ms"`
	ByType        map[string]int64 `json:"by_type"`
	FlagCounts    map[string]int64 `json:"flag_counts"`
}
