package analysis

import (
	"errors"
	"unicode/utf8"
)

// MinQuestionLength is the minimum rune count after whitespace
// normalization for a question to be scorable.
const MinQuestionLength = 3

var ErrQuestionTooShort = errors.New("question must be at least 3 characters long")

// ValidateQuestion enforces the data-model invariant: non-empty after
// whitespace normalization and at least the minimum length.
func ValidateQuestion(q string) error {
	if utf8.RuneCountInString(NormalizeText(q)) < MinQuestionLength {
		return ErrQuestionTooShort
	}
	return nil
}
