package scoring_test

import (
	"math"
	"testing"

	"lingua_edu_backend/internal/scoring"
)

func TestGradeScoreFormula(t *testing.T) {
	// score must equal round(100*k/n) for every k <= n and never decrease as
	// k grows.
	for n := 1; n <= 12; n++ {
		prev := -1
		for k := 0; k <= n; k++ {
			keys := make([]string, n)
			submitted := make([]string, n)
			for i := 0; i < n; i++ {
				keys[i] = "right"
				if i < k {
					submitted[i] = "right"
				} else {
					submitted[i] = "wrong"
				}
			}

			res := scoring.Grade(keys, submitted)
			want := int(math.Round(100 * float64(k) / float64(n)))
			if res.Score != want {
				t.Fatalf("n=%d k=%d: score=%d, want %d", n, k, res.Score, want)
			}
			if res.CorrectCount != k {
				t.Fatalf("n=%d k=%d: correct=%d", n, k, res.CorrectCount)
			}
			if res.Score < prev {
				t.Fatalf("n=%d k=%d: score %d dropped below %d", n, k, res.Score, prev)
			}
			prev = res.Score
		}
	}
}

func TestGradeZeroQuestions(t *testing.T) {
	res := scoring.Grade(nil, []string{"anything"})
	if res.Score != 0 {
		t.Fatalf("expected score 0 for empty exercise, got %d", res.Score)
	}
	if !res.Misconfigured {
		t.Fatal("expected misconfigured flag for empty exercise")
	}
}

func TestGradeShortSubmission(t *testing.T) {
	keys := []string{"cat", "dog", "bird"}

	res := scoring.Grade(keys, []string{"cat"})
	if res.CorrectCount != 1 || res.Score != 33 {
		t.Fatalf("short submission: got correct=%d score=%d", res.CorrectCount, res.Score)
	}

	// extra answers beyond the question count are ignored
	res = scoring.Grade(keys, []string{"cat", "dog", "bird", "fish"})
	if res.CorrectCount != 3 || res.Score != 100 {
		t.Fatalf("long submission: got correct=%d score=%d", res.CorrectCount, res.Score)
	}
}

func TestGradeNormalization(t *testing.T) {
	cases := []struct {
		expected  string
		submitted string
		match     bool
	}{
		{"Apple", "apple", true},
		{"  apple ", "APPLE", true},
		{"apple", " apples", false},
		{"2", "2", true},
		{"b", "B ", true},
		{"went", "go", false},
	}
	for _, tc := range cases {
		if got := scoring.AnswerMatches(tc.expected, tc.submitted); got != tc.match {
			t.Fatalf("AnswerMatches(%q, %q) = %v, want %v", tc.expected, tc.submitted, got, tc.match)
		}
	}
}

func TestGradeDeterministic(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e"}
	submitted := []string{"a", "x", "c", "", "E"}

	first := scoring.Grade(keys, submitted)
	for i := 0; i < 5; i++ {
		if again := scoring.Grade(keys, submitted); again != first {
			t.Fatalf("grading not deterministic: %+v vs %+v", again, first)
		}
	}
}
