package util

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailRegistered        = errors.New("email already registered")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrExerciseNotFound       = errors.New("exercise not found")
	ErrExerciseInactive       = errors.New("exercise not published or no longer available")
	ErrExerciseMisconfigured  = errors.New("exercise has no questions")
	ErrLevelLocked            = errors.New("exercise requires a higher level")
	ErrAttemptNotFound        = errors.New("attempt not found")
	ErrAttemptConflict        = errors.New("attempt could not be recorded after retries")
	ErrSpeakingUnavailable    = errors.New("speaking grader unavailable")
	ErrLessonNotFound         = errors.New("lesson not found")
	ErrUnsupportedMediaFormat = errors.New("unsupported media format")
)
