package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/scoring"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"
	"lingua_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The submission flow depends on narrow store interfaces rather than the
// concrete gorm repositories so the scoring pipeline can be exercised against
// in-memory fakes.

type AttemptStore interface {
	CreateScored(ctx context.Context, attempt *model.Attempt, progress *repository.ProgressUpdate) error
	ListByUser(ctx context.Context, userID uint, exerciseID uint, page, limit int) ([]model.Attempt, int64, error)
	FindByID(ctx context.Context, id uint) (*model.Attempt, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	CountPassedDistinct(ctx context.Context, userID uint) (int64, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	UpdateStreak(ctx context.Context, userID uint, streak int) error
}

type ExerciseStore interface {
	FindWithQuestions(ctx context.Context, id uint) (*model.Exercise, []model.Question, error)
}

type BadgeStore interface {
	Award(ctx context.Context, userID uint, code, name string) error
}

type CheckinStore interface {
	HasCheckinOn(ctx context.Context, userID uint, day time.Time) (bool, error)
	Create(ctx context.Context, userID uint, at time.Time) error
}

// SpeakingGrader scores a spoken response against a reference answer,
// returning a 0-100 score and textual feedback.
type SpeakingGrader interface {
	Evaluate(ctx context.Context, response, reference, promptContext string) (int, string, error)
}

type AttemptService struct {
	Attempts  AttemptStore
	Users     UserStore
	Exercises ExerciseStore
	Badges    BadgeStore
	Checkins  CheckinStore
	Speaking  SpeakingGrader

	// Now is swappable for streak tests.
	Now func() time.Time
}

func NewAttemptService(
	attempts AttemptStore,
	users UserStore,
	exercises ExerciseStore,
	badges BadgeStore,
	checkins CheckinStore,
	speaking SpeakingGrader,
) *AttemptService {
	return &AttemptService{
		Attempts:  attempts,
		Users:     users,
		Exercises: exercises,
		Badges:    badges,
		Checkins:  checkins,
		Speaking:  speaking,
		Now:       time.Now,
	}
}

type SubmitRequest struct {
	// Answers is the submitted answer list in question order, for challenge
	// and listening exercises.
	Answers []string `json:"answers"`
	// SpokenResponse is the transcript submitted for a speaking exercise.
	SpokenResponse   string `json:"spokenResponse"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
}

type SubmitResult struct {
	AttemptID      uint   `json:"attemptId"`
	Score          int    `json:"score"`
	Passed         bool   `json:"passed"`
	Completed      bool   `json:"completed"`
	PointsEarned   int    `json:"pointsEarned"`
	CorrectCount   int    `json:"correctCount"`
	TotalQuestions int    `json:"totalQuestions"`
	Status         string `json:"status"`
	Feedback       string `json:"feedback,omitempty"`
	Misconfigured  bool   `json:"misconfigured,omitempty"`
	TotalPoints    int    `json:"totalPoints"`
	Level          int    `json:"level"`
}

// Submit grades one submission, records the attempt and credits the user's
// ledger. Attempts are always recorded, including misconfigured exercises and
// pending speaking attempts; only scored outcomes with earned points touch
// the ledger.
func (s *AttemptService) Submit(ctx context.Context, userID, exerciseID uint, req *SubmitRequest) (*SubmitResult, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	exercise, questions, err := s.Exercises.FindWithQuestions(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExerciseNotFound
		}
		return nil, err
	}
	if !exercise.Active {
		return nil, util.ErrExerciseInactive
	}
	if user.Level < exercise.RequiredLevel {
		return nil, util.ErrLevelLocked
	}

	if exercise.Type == model.ExerciseSpeaking {
		return s.submitSpeaking(ctx, user, exercise, req)
	}
	return s.submitGraded(ctx, user, exercise, questions, req)
}

func (s *AttemptService) submitGraded(ctx context.Context, user *model.User, exercise *model.Exercise, questions []model.Question, req *SubmitRequest) (*SubmitResult, error) {
	keys := make([]string, len(questions))
	for i, q := range questions {
		keys[i] = q.Answer
	}

	grade := scoring.Grade(keys, req.Answers)
	if grade.Misconfigured {
		attempt := s.newAttempt(user.ID, exercise.ID, req, model.AttemptScored)
		attempt.Feedback = util.ErrExerciseMisconfigured.Error()
		if err := s.Attempts.CreateScored(ctx, attempt, nil); err != nil {
			return nil, err
		}
		monitoring.AttemptsScored.WithLabelValues(string(exercise.Type), "misconfigured").Inc()
		logger.Log.Warn("attempt against exercise with no questions",
			zap.Uint("exerciseId", exercise.ID),
			zap.Uint("userId", user.ID))
		return s.buildResult(ctx, user, attempt, true), nil
	}

	pointsPolicy, progression := scoring.PolicyForExercise(string(exercise.Type))
	outcome := scoring.Evaluate(pointsPolicy, grade.Score, exercise.PassingScore, exercise.PointsReward)

	attempt := s.newAttempt(user.ID, exercise.ID, req, model.AttemptScored)
	attempt.Score = grade.Score
	attempt.Passed = outcome.Passed
	attempt.Completed = outcome.Completed
	attempt.PointsEarned = outcome.PointsEarned
	attempt.CorrectCount = grade.CorrectCount
	attempt.TotalQuestions = grade.TotalQuestions

	return s.record(ctx, user, exercise, attempt, progression)
}

func (s *AttemptService) submitSpeaking(ctx context.Context, user *model.User, exercise *model.Exercise, req *SubmitRequest) (*SubmitResult, error) {
	score, feedback, err := s.Speaking.Evaluate(ctx, req.SpokenResponse, exercise.ReferenceAnswer, exercise.Description)
	if err != nil {
		// The grader being down must not lose the submission: record it as
		// pending with no points so it can be regraded later.
		logger.Log.Warn("speaking grader unavailable, recording pending attempt",
			zap.Uint("exerciseId", exercise.ID),
			zap.Error(err))
		attempt := s.newAttempt(user.ID, exercise.ID, req, model.AttemptPending)
		if err := s.Attempts.CreateScored(ctx, attempt, nil); err != nil {
			return nil, err
		}
		monitoring.AttemptsScored.WithLabelValues(string(exercise.Type), "pending").Inc()
		return s.buildResult(ctx, user, attempt, false), nil
	}

	outcome := scoring.Evaluate(scoring.PolicyFullOrHalf, score, exercise.PassingScore, exercise.PointsReward)

	attempt := s.newAttempt(user.ID, exercise.ID, req, model.AttemptScored)
	attempt.Score = score
	attempt.Passed = outcome.Passed
	attempt.Completed = outcome.Completed
	attempt.PointsEarned = outcome.PointsEarned
	attempt.Feedback = feedback

	return s.record(ctx, user, exercise, attempt, scoring.PolicyAbsoluteRecompute)
}

func (s *AttemptService) record(ctx context.Context, user *model.User, exercise *model.Exercise, attempt *model.Attempt, progression scoring.ProgressionPolicy) (*SubmitResult, error) {
	var progress *repository.ProgressUpdate
	if attempt.PointsEarned > 0 {
		progress = &repository.ProgressUpdate{
			UserID: user.ID,
			Points: attempt.PointsEarned,
			Policy: progression,
		}
	}

	if err := s.Attempts.CreateScored(ctx, attempt, progress); err != nil {
		logger.Log.Error("recording attempt failed",
			zap.Uint("userId", user.ID),
			zap.Uint("exerciseId", exercise.ID),
			zap.Error(err))
		return nil, err
	}

	result := "failed"
	if attempt.Passed {
		result = "passed"
	}
	monitoring.AttemptsScored.WithLabelValues(string(exercise.Type), result).Inc()
	if attempt.PointsEarned > 0 {
		monitoring.PointsAwarded.WithLabelValues(string(exercise.Type)).Add(float64(attempt.PointsEarned))
	}

	s.touchStreak(ctx, user)
	s.checkMilestones(ctx, user.ID)

	return s.buildResult(ctx, user, attempt, false), nil
}

func (s *AttemptService) newAttempt(userID, exerciseID uint, req *SubmitRequest, status string) *model.Attempt {
	answers, _ := json.Marshal(req.Answers)
	return &model.Attempt{
		UserID:           userID,
		ExerciseID:       exerciseID,
		Answers:          string(answers),
		TimeSpentSeconds: req.TimeSpentSeconds,
		Status:           status,
		CompletedAt:      s.Now(),
	}
}

// buildResult re-reads the user so the reported total and level reflect the
// committed ledger state, including concurrent submissions.
func (s *AttemptService) buildResult(ctx context.Context, user *model.User, attempt *model.Attempt, misconfigured bool) *SubmitResult {
	totalPoints := user.TotalPoints
	level := user.Level
	if fresh, err := s.Users.FindByID(ctx, user.ID); err == nil {
		totalPoints = fresh.TotalPoints
		level = fresh.Level
	}

	return &SubmitResult{
		AttemptID:      attempt.ID,
		Score:          attempt.Score,
		Passed:         attempt.Passed,
		Completed:      attempt.Completed,
		PointsEarned:   attempt.PointsEarned,
		CorrectCount:   attempt.CorrectCount,
		TotalQuestions: attempt.TotalQuestions,
		Status:         attempt.Status,
		Feedback:       attempt.Feedback,
		Misconfigured:  misconfigured,
		TotalPoints:    totalPoints,
		Level:          level,
	}
}

// touchStreak records today's learning activity and maintains the streak
// counter: first activity of the day extends the streak if yesterday had
// activity, otherwise restarts it at 1. Failures here never fail the
// submission.
func (s *AttemptService) touchStreak(ctx context.Context, user *model.User) {
	now := s.Now()
	today, err := s.Checkins.HasCheckinOn(ctx, user.ID, now)
	if err != nil || today {
		return
	}

	if err := s.Checkins.Create(ctx, user.ID, now); err != nil {
		logger.Log.Warn("recording checkin failed", zap.Uint("userId", user.ID), zap.Error(err))
		return
	}

	streak := 1
	yesterday, err := s.Checkins.HasCheckinOn(ctx, user.ID, now.AddDate(0, 0, -1))
	if err == nil && yesterday {
		streak = user.Streak + 1
	}
	if err := s.Users.UpdateStreak(ctx, user.ID, streak); err != nil {
		logger.Log.Warn("updating streak failed", zap.Uint("userId", user.ID), zap.Error(err))
	}
}

var milestones = []struct {
	Code      string
	Name      string
	Attempts  int64
	Passed    int64
}{
	{Code: "first_attempt", Name: "First Steps", Attempts: 1},
	{Code: "ten_attempts", Name: "Getting Serious", Attempts: 10},
	{Code: "hundred_attempts", Name: "Relentless", Attempts: 100},
	{Code: "first_pass", Name: "First Victory", Passed: 1},
	{Code: "ten_passed", Name: "On a Roll", Passed: 10},
	{Code: "fifty_passed", Name: "Polyglot in Training", Passed: 50},
}

func (s *AttemptService) checkMilestones(ctx context.Context, userID uint) {
	attempts, err := s.Attempts.CountByUser(ctx, userID)
	if err != nil {
		return
	}
	passed, err := s.Attempts.CountPassedDistinct(ctx, userID)
	if err != nil {
		return
	}

	for _, m := range milestones {
		if m.Attempts > 0 && attempts < m.Attempts {
			continue
		}
		if m.Passed > 0 && passed < m.Passed {
			continue
		}
		if err := s.Badges.Award(ctx, userID, m.Code, m.Name); err != nil {
			logger.Log.Warn("awarding badge failed",
				zap.Uint("userId", userID),
				zap.String("badge", m.Code),
				zap.Error(err))
		}
	}
}

// History returns a user's attempts, newest first.
func (s *AttemptService) History(ctx context.Context, userID, exerciseID uint, page, limit int) ([]model.Attempt, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.Attempts.ListByUser(ctx, userID, exerciseID, page, limit)
}

// Get returns one attempt, restricted to its owner unless the caller is
// staff.
func (s *AttemptService) Get(ctx context.Context, id, callerID uint, callerRole model.UserRole) (*model.Attempt, error) {
	attempt, err := s.Attempts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.UserID != callerID && callerRole != model.Admin && callerRole != model.Teacher {
		return nil, util.ErrPermissionDenied
	}
	return attempt, nil
}
