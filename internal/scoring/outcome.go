package scoring

import "math"

// PointsPolicy selects how a graded score converts into earned points. The
// two variants reflect how the challenge and listening flows have always paid
// out; they are deliberately kept separate so the divergence stays visible
// instead of being silently unified.
type PointsPolicy int

const (
	// PolicyFullOrHalf pays the full reward on a pass and half (floored) on a
	// fail. Used by challenge and speaking exercises.
	PolicyFullOrHalf PointsPolicy = iota
	// PolicyThresholdGate pays round(score/2) once the fixed completion
	// threshold is reached, and nothing below it. Used by listening
	// exercises; the gate ignores the exercise's own passing score.
	PolicyThresholdGate
)

// CompletionThreshold is the fixed listening completion gate, independent of
// any per-exercise passing score.
const CompletionThreshold = 70

// Outcome is the evaluated result of one scored attempt.
type Outcome struct {
	Passed       bool
	Completed    bool
	PointsEarned int
}

// Evaluate applies the points policy to a score. Passed always compares the
// score against the exercise's passingScore; Completed equals Passed under
// PolicyFullOrHalf and is gated by CompletionThreshold under
// PolicyThresholdGate.
func Evaluate(policy PointsPolicy, score, passingScore, pointsReward int) Outcome {
	passed := score >= passingScore

	switch policy {
	case PolicyThresholdGate:
		completed := score >= CompletionThreshold
		points := 0
		if completed {
			points = int(math.Round(float64(score) * 0.5))
		}
		return Outcome{Passed: passed, Completed: completed, PointsEarned: points}
	default:
		points := pointsReward
		if !passed {
			points = pointsReward / 2
		}
		return Outcome{Passed: passed, Completed: passed, PointsEarned: points}
	}
}
