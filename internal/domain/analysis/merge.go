package analysis

// Merge rules for the orchestration pipeline. NL signals are additive-only;
// the override model is overwrite-only and always has final say.

// ApplySignals folds NL signals into the result. It appends flags and
// unions keywords but never touches difficulty or quality.
func (r *AnalysisResult) ApplySignals(sig *NLSignals) {
	if sig == nil {
		return
	}
	if sig.PassiveVoice {
		r.Flags = append(r.Flags, FlagPassiveVoice)
	}
	if sig.SentenceCount > 3 {
		r.Flags = append(r.Flags, FlagMultipleClauses)
	}
	if len(sig.Keywords) > 0 {
		r.Keywords = unionKeywords(r.Keywords, sig.Keywords)
	}
}

// ApplyOverride overwrites each field the prediction carries. A present
// zero quality score is a valid override.
func (r *AnalysisResult) ApplyOverride(p *OverridePrediction) {
	if p.Empty() {
		return
	}
	if p.Difficulty != nil {
		r.Difficulty = *p.Difficulty
	}
	if p.QualityScore != nil {
		r.QualityScore = *p.QualityScore
	}
	if p.Explanation != nil {
		r.Explanation = *p.Explanation
	}
	r.Source = "override"
}

func unionKeywords(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, k := range base {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, k := range extra {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
