package analysis

import (
	"reflect"
	"strings"
	"testing"
)

func TestHeuristicScoreShortRecallQuestion(t *testing.T) {
	res := HeuristicScore("What is recursion?", "Computer Science", TypeMCQ)

	if res.Difficulty != DifficultyEasy {
		t.Errorf("difficulty = %s, want Easy", res.Difficulty)
	}
	if res.QualityScore != 65 {
		t.Errorf("quality = %v, want 65", res.QualityScore)
	}
	if !reflect.DeepEqual(res.Flags, []string{FlagNeedsContext}) {
		t.Errorf("flags = %v, want [%s]", res.Flags, FlagNeedsContext)
	}
	if !reflect.DeepEqual(res.Keywords, []string{"recursion"}) {
		t.Errorf("keywords = %v, want [recursion]", res.Keywords)
	}
	if res.Source != "heuristic" {
		t.Errorf("source = %q, want heuristic", res.Source)
	}
}

func TestHeuristicScoreTechnicalQuestion(t *testing.T) {
	q := "Explain how the quantum entropy theorem constrains the optimization of a stochastic cryptography algorithm when the network protocol operates under equilibrium conditions and the matrix representation grows"
	res := HeuristicScore(q, "Physics", TypeTheory)

	if res.Difficulty != DifficultyHard {
		t.Errorf("difficulty = %s, want Hard", res.Difficulty)
	}
	if res.QualityScore != 100 {
		t.Errorf("quality = %v, want 100 (clamped)", res.QualityScore)
	}
	if len(res.Flags) != 0 {
		t.Errorf("flags = %v, want none", res.Flags)
	}

	wantKeywords := []string{"quantum", "entropy", "theorem", "optimization", "cryptography", "algorithm", "network", "protocol"}
	if !reflect.DeepEqual(res.Keywords, wantKeywords) {
		t.Errorf("keywords = %v, want %v", res.Keywords, wantKeywords)
	}
}

func TestHeuristicScoreBroadVagueQuestion(t *testing.T) {
	q := "I was wondering about the various things related to general knowledge and many other topics that students basically might perhaps need to know about in the course of their studies overall today as well as anything else we have covered"
	res := HeuristicScore(q, "General", TypeMCQ)

	if res.Difficulty != DifficultyMedium {
		t.Errorf("difficulty = %s, want Medium", res.Difficulty)
	}
	want := []string{FlagAmbiguousPhrasing, FlagBroadScope, FlagLacksDepth, FlagVagueLanguage}
	if !reflect.DeepEqual(res.Flags, want) {
		t.Errorf("flags = %v, want %v", res.Flags, want)
	}
	if !strings.Contains(res.Explanation, "wide scope") {
		t.Errorf("explanation %q should mention the wide scope", res.Explanation)
	}
	if !strings.Contains(res.SuggestedFix, "Split the question") {
		t.Errorf("suggested fix %q should propose splitting", res.SuggestedFix)
	}
}

func TestHeuristicScoreQualityBounds(t *testing.T) {
	questions := []string{
		"a b c",
		"What?",
		"Explain how which when where who and algorithm quantum theorem entropy works in a network protocol under equilibrium every single time",
		strings.Repeat("word ", 60),
		"stuff",
	}
	for _, q := range questions {
		res := HeuristicScore(q, "s", TypeMCQ)
		if res.QualityScore < 30 || res.QualityScore > 100 {
			t.Errorf("quality %v out of [30,100] for %q", res.QualityScore, q)
		}
	}
}

func TestHeuristicScoreDeterministic(t *testing.T) {
	q := "Describe how a compiler optimizes recursion, and explain which data structures are involved."
	a := HeuristicScore(q, "CS", TypeTheory)
	b := HeuristicScore(q, "CS", TypeTheory)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same input produced different results: %+v vs %+v", a, b)
	}
}

func TestHeuristicScoreNormalizesWhitespace(t *testing.T) {
	res := HeuristicScore("  What   is\trecursion?  ", "CS", TypeMCQ)
	if res.Question != "What is recursion?" {
		t.Errorf("question = %q, want normalized text", res.Question)
	}
}

func TestExtractKeywordsDedupAndCap(t *testing.T) {
	text := "algorithm algorithm recursion network protocol matrix vector molecule equation circuit compiler"
	got := ExtractKeywords(text)
	want := []string{"algorithm", "recursion", "network", "protocol", "matrix", "vector", "molecule", "equation"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("keywords = %v, want %v", got, want)
	}
}

func TestExtractKeywordsNoMatches(t *testing.T) {
	if got := ExtractKeywords("plain words only"); got != nil {
		t.Errorf("keywords = %v, want nil", got)
	}
}
