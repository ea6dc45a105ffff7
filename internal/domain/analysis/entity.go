package analysis

import (
	"strings"
)

// QuestionType enum
type QuestionType string

const (
	TypeMCQ    QuestionType = "MCQ"
	TypeTheory QuestionType = "Theory"
)

// ParseQuestionType maps free-form input onto a known type.
// Anything unrecognized falls back to MCQ.
func ParseQuestionType(s string) QuestionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "theory":
		return TypeTheory
	default:
		return TypeMCQ
	}
}

// Difficulty enum
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Flags emitted by the heuristic scorer, in their fixed output order.
const (
	FlagAmbiguousPhrasing = "ambiguous phrasing"
	FlagBroadScope        = "broad scope"
	FlagNeedsContext      = "needs more context"
	FlagLacksDepth        = "lacks technical depth"
	FlagVagueLanguage     = "vague language"
)

// Flags contributed by NL signal merging.
const (
	FlagPassiveVoice    = "passive voice"
	FlagMultipleClauses = "multiple clauses"
)

// AnalysisRequest is one question to score. Built per HTTP call,
// validated, then discarded after producing one result.
type AnalysisRequest struct {
	Question string       `json:"question"`
	Subject  string       `json:"subject"`
	Type     QuestionType `json:"type"`
}

// ShapToken is a (token, weight) attribution pair from the inference model.
type ShapToken struct {
	Token  string  `json:"token"`
	Weight float64 `json:"weight"`
}

// Aggregate: AnalysisResult. Produced fresh per request and only ever
// merged into during orchestration, never mutated afterwards.
type AnalysisResult struct {
	Question     string       `json:"question"`
	Subject      string       `json:"subject,omitempty"`
	QuestionType QuestionType `json:"questionType,omitempty"`
	Difficulty   Difficulty   `json:"difficulty"`
	QualityScore float64      `json:"qualityScore"`
	Flags        []string     `json:"flags"`
	Explanation  string       `json:"explanation"`
	SuggestedFix string       `json:"suggestedFix"`
	Keywords     []string     `json:"keywords,omitempty"`
	ShapTokens   []ShapToken  `json:"shapTokens,omitempty"`
	Source       string       `json:"source,omitempty"`
}

// NLSignals is the additive input from the NLP provider. It appends flags
// and keywords but never overwrites difficulty or quality.
type NLSignals struct {
	SentenceCount int      `json:"sentence_count"`
	PassiveVoice  bool     `json:"passive_voice"`
	Complexity    float64  `json:"complexity"`
	Keywords      []string `json:"keywords,omitempty"`
	SyntaxDepth   int      `json:"syntax_depth,omitempty"`
	Entities      []string `json:"entities,omitempty"`
	Sentiment     float64  `json:"sentiment,omitempty"`
	AvgDepDist    float64  `json:"avg_dependency_distance,omitempty"`
}

// OverridePrediction carries overwrite-only fields from the override model.
// Fields are pointers so a legitimate zero quality score still counts as
// present and overwrites the base result.
type OverridePrediction struct {
	Difficulty   *Difficulty `json:"difficulty,omitempty"`
	QualityScore *float64    `json:"quality_score,omitempty"`
	Explanation  *string     `json:"explanation,omitempty"`
	Confidence   *float64    `json:"confidence,omitempty"`
}

// Empty reports whether the override carries nothing to apply.
func (p *OverridePrediction) Empty() bool {
	if p == nil {
		return true
	}
	return p.Difficulty == nil && p.QualityScore == nil && p.Explanation == nil
}

// NormalizeText collapses internal whitespace runs to single spaces and trims.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// WordCount counts whitespace-separated words after normalization.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
