package analysis

import (
	"fmt"
	"regexp"
	"strings"
)

// The heuristic scorer is the safety net: it is pure, deterministic and
// always returns a result, so the service contract never depends on any
// upstream being reachable.

var (
	// Terms that mark a question as technically demanding.
	complexTermsRe = regexp.MustCompile(`(?i)\b(algorithm|asymptotic|complexity|polynomial|differential|integral|quantum|entropy|theorem|optimization|concurrency|cryptography|eigenvalue|stochastic|thermodynamics|electromagnetism|equilibrium|regression|homeostasis|oxidation)\b`)

	// Softer domain vocabulary, worth one point.
	domainTermsRe = regexp.MustCompile(`(?i)\b(database|network|protocol|function|variable|matrix|vector|molecule|equation|circuit|compiler|kernel|enzyme|velocity|momentum|inflation|photosynthesis|derivative|inheritance|pointer)\b`)

	imperativeVerbs = []string{"write", "explain", "describe", "implement", "design", "create"}

	specificityRe = regexp.MustCompile(`(?i)\b(which|when|where|who|how)\b`)

	fillerWordsRe = regexp.MustCompile(`(?i)\b(thing|stuff|something|basically|just|simply)\b`)

	listStructureRe = regexp.MustCompile(`,|;|\band\b`)

	// Vocabulary used for keyword extraction only; it is broader than the
	// difficulty term sets and does not feed the difficulty score.
	keywordVocabRe = regexp.MustCompile(`(?i)\b(algorithm|recursion|complexity|database|network|protocol|function|variable|matrix|vector|molecule|equation|circuit|compiler|kernel|enzyme|theorem|entropy|quantum|polynomial|derivative|integral|regression|optimization|concurrency|cryptography|inheritance|pointer|photosynthesis|velocity|momentum|oxidation|equilibrium)\b`)
)

// HeuristicScore computes difficulty, quality, flags and keywords from the
// question text alone. Same input, same output.
func HeuristicScore(question, subject string, qtype QuestionType) *AnalysisResult {
	text := NormalizeText(question)
	words := strings.Fields(text)
	wc := len(words)

	difficulty := scoreDifficulty(text, wc)
	quality := scoreQuality(text, words, wc)
	flags := detectFlags(text, words, wc)
	keywords := ExtractKeywords(text)

	broad := containsFlag(flags, FlagBroadScope)
	return &AnalysisResult{
		Question:     text,
		Subject:      subject,
		QuestionType: qtype,
		Difficulty:   difficulty,
		QualityScore: quality,
		Flags:        flags,
		Explanation:  explanationFor(difficulty, broad),
		SuggestedFix: suggestedFixFor(difficulty, broad),
		Keywords:     keywords,
		Source:       "heuristic",
	}
}

func scoreDifficulty(text string, wc int) Difficulty {
	score := 0
	if complexTermsRe.MatchString(text) {
		score += 2
	}
	if domainTermsRe.MatchString(text) {
		score++
	}
	if wc > 20 {
		score++
	}
	if wc < 8 {
		score--
	}

	switch {
	case score <= 0:
		return DifficultyEasy
	case score <= 2:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

func scoreQuality(text string, words []string, wc int) float64 {
	score := 70.0

	if strings.Contains(text, "?") || startsWithImperative(words) {
		score += 15
	}
	switch {
	case wc >= 8 && wc <= 30:
		score += 10
	case wc < 5:
		score -= 20
	case wc > 40:
		score -= 15
	}
	if specificityRe.MatchString(text) {
		score += 5
	}
	if wc > 15 && listStructureRe.MatchString(strings.ToLower(text)) {
		score += 5
	}

	if score < 30 {
		score = 30
	}
	if score > 100 {
		score = 100
	}
	return score
}

// detectFlags runs every rule independently; all that apply are emitted,
// in a fixed order.
func detectFlags(text string, words []string, wc int) []string {
	var flags []string
	if !strings.Contains(text, "?") && !startsWithImperative(words) {
		flags = append(flags, FlagAmbiguousPhrasing)
	}
	if wc > 35 {
		flags = append(flags, FlagBroadScope)
	}
	if wc < 6 {
		flags = append(flags, FlagNeedsContext)
	}
	if wc > 15 && !complexTermsRe.MatchString(text) {
		flags = append(flags, FlagLacksDepth)
	}
	if fillerWordsRe.MatchString(text) {
		flags = append(flags, FlagVagueLanguage)
	}
	return flags
}

func startsWithImperative(words []string) bool {
	if len(words) == 0 {
		return false
	}
	first := strings.ToLower(strings.Trim(words[0], ".,:;!?"))
	for _, v := range imperativeVerbs {
		if first == v {
			return true
		}
	}
	return false
}

// ExtractKeywords matches the fixed vocabulary, de-duplicates preserving
// first-seen order, and truncates to 8 entries.
func ExtractKeywords(text string) []string {
	matches := keywordVocabRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		k := strings.ToLower(m)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
		if len(out) == 8 {
			break
		}
	}
	return out
}

func explanationFor(d Difficulty, broad bool) string {
	if broad {
		return fmt.Sprintf("Rated %s: the question covers a wide scope, which tends to dilute what is actually being assessed.", strings.ToLower(string(d)))
	}
	switch d {
	case DifficultyEasy:
		return "Rated easy: the question relies on recall of a single concept with little technical vocabulary."
	case DifficultyMedium:
		return "Rated medium: the question combines domain vocabulary with moderate length, suggesting applied understanding."
	default:
		return "Rated hard: the question uses demanding technical vocabulary and an extended prompt."
	}
}

func suggestedFixFor(d Difficulty, broad bool) string {
	if broad {
		return "Split the question into smaller, focused sub-questions that each assess one idea."
	}
	switch d {
	case DifficultyEasy:
		return "Add context or a concrete scenario if a deeper level of understanding should be assessed."
	case DifficultyMedium:
		return "Tighten the phrasing so the expected depth of the answer is unambiguous."
	default:
		return "Verify that the required background has been taught; consider scaffolding the question."
	}
}

func containsFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
