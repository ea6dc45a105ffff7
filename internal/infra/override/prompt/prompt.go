package prompt

import "fmt"

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior exam-item reviewer. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- difficulty must be exactly one of: Easy, Medium, Hard — or null if you cannot judge it.
- quality_score is a number from 0 to 100, or null if you cannot judge it. 0 is a valid score.
- explanation is one or two sentences justifying your judgement, or null.
- confidence is a number from 0 to 1 describing how certain you are overall.
- Omit nothing; use null for any field you decline to judge.

Schema (example with empty values):
{
  "difficulty": "<Easy|Medium|Hard|null>",
  "quality_score": 0,
  "explanation": "<string|null>",
  "confidence": 0.0
}`
}

// GetUserPrompt builds a compact user message around one exam question.
func GetUserPrompt(question, subject, questionType string) string {
	return fmt.Sprintf("Judge the difficulty and quality of this %s exam question (subject: %s) and respond with the JSON per schema. Question: %s",
		questionType, subject, question)
}
