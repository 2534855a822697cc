package scoring_test

import (
	"testing"

	"lingua_edu_backend/internal/scoring"
)

func TestFullOrHalfPolicy(t *testing.T) {
	cases := []struct {
		score, passing, reward int
		wantPassed             bool
		wantPoints             int
	}{
		{60, 60, 100, true, 100},
		{100, 60, 100, true, 100},
		{59, 60, 100, false, 50},
		{0, 60, 100, false, 50},
		{40, 60, 75, false, 37}, // half reward floors
	}
	for _, tc := range cases {
		out := scoring.Evaluate(scoring.PolicyFullOrHalf, tc.score, tc.passing, tc.reward)
		if out.Passed != tc.wantPassed || out.PointsEarned != tc.wantPoints {
			t.Fatalf("score=%d: got passed=%v points=%d, want passed=%v points=%d",
				tc.score, out.Passed, out.PointsEarned, tc.wantPassed, tc.wantPoints)
		}
		if out.Completed != out.Passed {
			t.Fatalf("score=%d: completed should track passed under full-or-half", tc.score)
		}
	}
}

func TestThresholdGatePolicy(t *testing.T) {
	cases := []struct {
		score         int
		wantCompleted bool
		wantPoints    int
	}{
		{100, true, 50},
		{80, true, 40},
		{75, true, 38}, // round(37.5) rounds half up
		{70, true, 35},
		{69, false, 0},
		{50, false, 0},
		{0, false, 0},
	}
	for _, tc := range cases {
		out := scoring.Evaluate(scoring.PolicyThresholdGate, tc.score, 60, 100)
		if out.Completed != tc.wantCompleted || out.PointsEarned != tc.wantPoints {
			t.Fatalf("score=%d: got completed=%v points=%d, want completed=%v points=%d",
				tc.score, out.Completed, out.PointsEarned, tc.wantCompleted, tc.wantPoints)
		}
	}
}

// The listening gate deliberately ignores the exercise's own passing score;
// passed still reflects it, completed does not.
func TestThresholdGateIgnoresPassingScore(t *testing.T) {
	out := scoring.Evaluate(scoring.PolicyThresholdGate, 65, 50, 100)
	if !out.Passed {
		t.Fatal("score 65 should pass a 50 passing score")
	}
	if out.Completed {
		t.Fatal("score 65 must not complete: completion gate is fixed at 70")
	}
	if out.PointsEarned != 0 {
		t.Fatalf("incomplete listening attempt earned %d points", out.PointsEarned)
	}
}

func TestEndToEndChallengeExample(t *testing.T) {
	// 5 questions, passingScore 60, reward 100: 3 correct passes with the
	// full reward, 2 correct fails with half.
	keys := []string{"a", "b", "c", "d", "e"}

	res := scoring.Grade(keys, []string{"a", "b", "c", "x", "x"})
	out := scoring.Evaluate(scoring.PolicyFullOrHalf, res.Score, 60, 100)
	if res.Score != 60 || !out.Passed || out.PointsEarned != 100 {
		t.Fatalf("3/5: score=%d passed=%v points=%d", res.Score, out.Passed, out.PointsEarned)
	}

	res = scoring.Grade(keys, []string{"a", "b", "x", "x", "x"})
	out = scoring.Evaluate(scoring.PolicyFullOrHalf, res.Score, 60, 100)
	if res.Score != 40 || out.Passed || out.PointsEarned != 50 {
		t.Fatalf("2/5: score=%d passed=%v points=%d", res.Score, out.Passed, out.PointsEarned)
	}
}

func TestEndToEndListeningExample(t *testing.T) {
	keys := make([]string, 10)
	for i := range keys {
		keys[i] = "yes"
	}

	submitted := make([]string, 10)
	for i := 0; i < 8; i++ {
		submitted[i] = "yes"
	}
	res := scoring.Grade(keys, submitted)
	out := scoring.Evaluate(scoring.PolicyThresholdGate, res.Score, 60, 100)
	if res.Score != 80 || !out.Completed || out.PointsEarned != 40 {
		t.Fatalf("8/10: score=%d completed=%v points=%d", res.Score, out.Completed, out.PointsEarned)
	}

	submitted = make([]string, 10)
	for i := 0; i < 5; i++ {
		submitted[i] = "yes"
	}
	res = scoring.Grade(keys, submitted)
	out = scoring.Evaluate(scoring.PolicyThresholdGate, res.Score, 60, 100)
	if res.Score != 50 || out.Completed || out.PointsEarned != 0 {
		t.Fatalf("5/10: score=%d completed=%v points=%d", res.Score, out.Completed, out.PointsEarned)
	}
}
