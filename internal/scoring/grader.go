// Package scoring holds the pure scoring and progression rules: answer
// grading, points policies and level policies. It performs no I/O so every
// rule is unit-testable; persistence and transport live in the repository and
// service layers.
package scoring

import (
	"math"
	"strings"
)

// GradeResult is the outcome of comparing one submitted answer sheet against
// an exercise's answer keys.
type GradeResult struct {
	CorrectCount   int
	TotalQuestions int
	// Score is the rounded percentage of correct answers, 0-100.
	Score int
	// Misconfigured flags an exercise with zero questions. The score stays 0
	// in that case; callers decide how loudly to surface it.
	Misconfigured bool
}

// Grade compares submitted answers to the expected keys, position by
// position. A missing or extra answer at any index counts as incorrect;
// grading never errors. Comparison trims surrounding whitespace and is
// case-insensitive, which covers both free-text answers and choice option
// identifiers.
func Grade(keys []string, submitted []string) GradeResult {
	total := len(keys)
	if total == 0 {
		return GradeResult{Misconfigured: true}
	}

	correct := 0
	for i, key := range keys {
		if i >= len(submitted) {
			break
		}
		if AnswerMatches(key, submitted[i]) {
			correct++
		}
	}

	return GradeResult{
		CorrectCount:   correct,
		TotalQuestions: total,
		Score:          int(math.Round(100 * float64(correct) / float64(total))),
	}
}

// AnswerMatches reports whether a submitted value matches the expected key
// after trimming and case folding.
func AnswerMatches(expected, submitted string) bool {
	return strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(submitted))
}
