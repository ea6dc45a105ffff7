package middleware

import (
	"fmt"
	"strings"

	"github.com/questionlab/qscore/internal/domain/analysis"
)

// Input validation and sanitization utilities

// ValidateQuestion checks the question field of an analysis request
func ValidateQuestion(q string) error {
	if strings.TrimSpace(q) == "" {
		return fmt.Errorf("question is required")
	}
	return analysis.ValidateQuestion(q)
}

// ValidateSubject checks the subject field
func ValidateSubject(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("subject is required")
	}
	if len(s) > 120 {
		return fmt.Errorf("subject must be at most 120 characters")
	}
	return nil
}

// ValidateBatchSize bounds one batch call
func ValidateBatchSize(n int) error {
	if n == 0 {
		return fmt.Errorf("questions must be a non-empty list")
	}
	if n > 100 {
		return fmt.Errorf("maximum 100 questions per request")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidateDays validates days parameter
func ValidateDays(days int) int {
	if days <= 0 {
		return 7 // default
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}
