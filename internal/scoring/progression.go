package scoring

// ProgressionPolicy selects how earned points move a user's level. The
// challenge flow always recomputes the level from the running total, while
// the listening flow bumps the current level by earned points; the two can
// drift and that drift is preserved on purpose (consolidating them changes
// observable levels for existing users).
type ProgressionPolicy int

const (
	// PolicyAbsoluteRecompute derives the level from the new point total:
	// level = total/PointsPerLevel + 1.
	PolicyAbsoluteRecompute ProgressionPolicy = iota
	// PolicyIncrementalBump raises the current level by
	// earned/PointsPerBump without consulting the total.
	PolicyIncrementalBump
)

const (
	// PointsPerLevel is the bracket size for the absolute level formula.
	PointsPerLevel = 500
	// PointsPerBump is the earned-points step for the incremental formula.
	PointsPerBump = 100
)

// LevelForPoints is the absolute level formula. Level 1 starts at zero
// points.
func LevelForPoints(totalPoints int) int {
	return totalPoints/PointsPerLevel + 1
}

// NextLevel computes the level after crediting pointsEarned under the given
// policy. newTotal must already include pointsEarned.
func NextLevel(policy ProgressionPolicy, currentLevel, newTotal, pointsEarned int) int {
	if policy == PolicyIncrementalBump {
		return currentLevel + pointsEarned/PointsPerBump
	}
	return LevelForPoints(newTotal)
}

// PolicyForExercise maps an exercise family to its points and progression
// policies. The pairing is fixed at this boundary so call sites cannot mix
// them accidentally.
func PolicyForExercise(exerciseType string) (PointsPolicy, ProgressionPolicy) {
	if exerciseType == "listening" {
		return PolicyThresholdGate, PolicyIncrementalBump
	}
	return PolicyFullOrHalf, PolicyAbsoluteRecompute
}
