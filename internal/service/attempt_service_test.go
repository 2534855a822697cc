package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/scoring"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	m.Run()
}

// fakeStore is an in-memory stand-in for the gorm repositories. CreateScored
// applies the progress update under the same lock as the attempt insert,
// mirroring the transactional behavior of the real store.
type fakeStore struct {
	mu       sync.Mutex
	users    map[uint]*model.User
	attempts []model.Attempt
	badges   map[string]bool
	checkins map[string]bool
	nextID   uint

	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[uint]*model.User),
		badges:   make(map[string]bool),
		checkins: make(map[string]bool),
	}
}

func (f *fakeStore) CreateScored(_ context.Context, attempt *model.Attempt, progress *repository.ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}

	f.nextID++
	attempt.ID = f.nextID
	f.attempts = append(f.attempts, *attempt)

	if progress != nil && progress.Points != 0 {
		u := f.users[progress.UserID]
		u.TotalPoints += progress.Points
		u.Level = scoring.NextLevel(progress.Policy, u.Level, u.TotalPoints, progress.Points)
	}
	return nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID uint, exerciseID uint, page, limit int) ([]model.Attempt, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.Attempt
	for _, a := range f.attempts {
		if a.UserID != userID {
			continue
		}
		if exerciseID != 0 && a.ExerciseID != exerciseID {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) FindByID(_ context.Context, id uint) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.attempts {
		if a.ID == id {
			copied := a
			return &copied, nil
		}
	}
	return nil, util.ErrAttemptNotFound
}

func (f *fakeStore) CountByUser(_ context.Context, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, a := range f.attempts {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountPassedDistinct(_ context.Context, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := make(map[uint]bool)
	for _, a := range f.attempts {
		if a.UserID == userID && a.Passed {
			seen[a.ExerciseID] = true
		}
	}
	return int64(len(seen)), nil
}

type fakeUsers struct {
	store *fakeStore
}

func (f *fakeUsers) FindByID(_ context.Context, id uint) (*model.User, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	u, ok := f.store.users[id]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) UpdateStreak(_ context.Context, userID uint, streak int) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	f.store.users[userID].Streak = streak
	return nil
}

type fakeExercises struct {
	exercise  *model.Exercise
	questions []model.Question
}

func (f *fakeExercises) FindWithQuestions(_ context.Context, id uint) (*model.Exercise, []model.Question, error) {
	if f.exercise == nil || f.exercise.ID != id {
		return nil, nil, util.ErrExerciseNotFound
	}
	copied := *f.exercise
	return &copied, f.questions, nil
}

type fakeBadges struct {
	store *fakeStore
}

func (f *fakeBadges) Award(_ context.Context, userID uint, code, _ string) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	f.store.badges[fmt.Sprintf("%d:%s", userID, code)] = true
	return nil
}

type fakeCheckins struct {
	store *fakeStore
}

func (f *fakeCheckins) HasCheckinOn(_ context.Context, userID uint, day time.Time) (bool, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	return f.store.checkins[fmt.Sprintf("%d:%s", userID, day.Format(util.DateFormat))], nil
}

func (f *fakeCheckins) Create(_ context.Context, userID uint, at time.Time) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	f.store.checkins[fmt.Sprintf("%d:%s", userID, at.Format(util.DateFormat))] = true
	return nil
}

type fakeSpeaking struct {
	score    int
	feedback string
	err      error
}

func (f *fakeSpeaking) Evaluate(_ context.Context, _, _, _ string) (int, string, error) {
	return f.score, f.feedback, f.err
}

func newTestService(store *fakeStore, exercises *fakeExercises, speaking SpeakingGrader) *AttemptService {
	if speaking == nil {
		speaking = &fakeSpeaking{}
	}
	return NewAttemptService(
		store,
		&fakeUsers{store: store},
		exercises,
		&fakeBadges{store: store},
		&fakeCheckins{store: store},
		speaking,
	)
}

func challengeExercise(questions int) (*fakeExercises, []string) {
	qs := make([]model.Question, questions)
	answers := make([]string, questions)
	for i := range qs {
		qs[i] = model.Question{
			BaseModel: model.BaseModel{ID: uint(i + 1)},
			Order:     i + 1,
			Answer:    fmt.Sprintf("answer%d", i),
		}
		answers[i] = fmt.Sprintf("answer%d", i)
	}
	return &fakeExercises{
		exercise: &model.Exercise{
			BaseModel:     model.BaseModel{ID: 1},
			Type:          model.ExerciseChallenge,
			PassingScore:  60,
			PointsReward:  100,
			RequiredLevel: 1,
			Active:        true,
		},
		questions: qs,
	}, answers
}

func seedUser(store *fakeStore, id uint) {
	store.users[id] = &model.User{
		BaseModel: model.BaseModel{ID: id},
		Name:      fmt.Sprintf("user%d", id),
		Level:     1,
	}
}

func TestSubmitChallengePassAwardsFullReward(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	exercises, answers := challengeExercise(4)
	svc := newTestService(store, exercises, nil)

	result, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if result.Score != 100 || !result.Passed || !result.Completed {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.PointsEarned != 100 {
		t.Fatalf("expected full reward 100, got %d", result.PointsEarned)
	}
	if result.TotalPoints != 100 || result.Level != 1 {
		t.Fatalf("expected total 100 level 1, got total %d level %d", result.TotalPoints, result.Level)
	}
}

func TestSubmitChallengeFailAwardsHalfReward(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	exercises, answers := challengeExercise(4)
	answers[0] = "wrong"
	answers[1] = "wrong"
	answers[2] = "wrong"
	exercises.exercise.PointsReward = 75
	svc := newTestService(store, exercises, nil)

	result, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if result.Score != 25 || result.Passed {
		t.Fatalf("unexpected result: %+v", result)
	}
	// half of 75, floored
	if result.PointsEarned != 37 {
		t.Fatalf("expected 37 points, got %d", result.PointsEarned)
	}
}

func TestSubmitListeningGateIgnoresPassingScore(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	exercises, answers := challengeExercise(4)
	exercises.exercise.Type = model.ExerciseListening
	exercises.exercise.PassingScore = 90
	answers[3] = "wrong"
	svc := newTestService(store, exercises, nil)

	result, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// 75% clears the fixed 70 gate even though the passing score is 90.
	if result.Score != 75 {
		t.Fatalf("expected score 75, got %d", result.Score)
	}
	if !result.Completed {
		t.Fatal("expected completed at 75 with threshold 70")
	}
	if result.Passed {
		t.Fatal("75 should not pass a passing score of 90")
	}
	if result.PointsEarned != 38 {
		t.Fatalf("expected round(75*0.5)=38 points, got %d", result.PointsEarned)
	}
}

func TestSubmitListeningBelowGateEarnsNothing(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	exercises, answers := challengeExercise(4)
	exercises.exercise.Type = model.ExerciseListening
	answers[0] = "wrong"
	answers[1] = "wrong"
	svc := newTestService(store, exercises, nil)

	result, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if result.Score != 50 || result.Completed || result.PointsEarned != 0 {
		t.Fatalf("expected no credit below the gate, got %+v", result)
	}
	if result.TotalPoints != 0 {
		t.Fatalf("ledger should be untouched, got total %d", result.TotalPoints)
	}
	if len(store.attempts) != 1 {
		t.Fatalf("attempt should still be recorded, got %d", len(store.attempts))
	}
}

func TestSubmitListeningBumpsLevelByEarnedPoints(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	store.users[1].Level = 3
	exercises, answers := challengeExercise(2)
	exercises.exercise.Type = model.ExerciseListening
	svc := newTestService(store, exercises, nil)

	for i := 0; i < 4; i++ {
		if _, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers}); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	u := store.users[1]
	if u.TotalPoints != 200 {
		t.Fatalf("expected total 200, got %d", u.TotalPoints)
	}
	// Each submission earns 50; 50/100 == 0 so the level never moves under
	// the incremental policy, regardless of the running total.
	if u.Level != 3 {
		t.Fatalf("expected level 3, got %d", u.Level)
	}
}

func TestSubmitChallengeRecomputesLevelFromTotal(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	exercises, answers := challengeExercise(2)
	exercises.exercise.PointsReward = 300
	svc := newTestService(store, exercises, nil)

	for i := 0; i < 4; i++ {
		if _, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers}); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	u := store.users[1]
	if u.TotalPoints != 1200 {
		t.Fatalf("expected total 1200, got %d", u.TotalPoints)
	}
	if u.Level != 1200/500+1 {
		t.Fatalf("expected level %d, got %d", 1200/500+1, u.Level)
	}
}

func TestSubmitMisconfiguredExerciseRecordsWithoutCredit(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	exercises := &fakeExercises{
		exercise: &model.Exercise{
			BaseModel:     model.BaseModel{ID: 1},
			Type:          model.ExerciseChallenge,
			PassingScore:  60,
			PointsReward:  100,
			RequiredLevel: 1,
			Active:        true,
		},
	}
	svc := newTestService(store, exercises, nil)

	result, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: []string{"a"}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if !result.Misconfigured {
		t.Fatal("expected misconfigured flag")
	}
	if result.Score != 0 || result.PointsEarned != 0 || result.Passed {
		t.Fatalf("expected zero outcome, got %+v", result)
	}
	if len(store.attempts) != 1 {
		t.Fatalf("attempt must still be recorded, got %d", len(store.attempts))
	}
	if store.users[1].TotalPoints != 0 {
		t.Fatalf("ledger must be untouched, got %d", store.users[1].TotalPoints)
	}
}

func TestSubmitRejectsInactiveExercise(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	exercises, answers := challengeExercise(2)
	exercises.exercise.Active = false
	svc := newTestService(store, exercises, nil)

	if _, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers}); !errors.Is(err, util.ErrExerciseInactive) {
		t.Fatalf("expected ErrExerciseInactive, got %v", err)
	}
	if len(store.attempts) != 0 {
		t.Fatal("no attempt should be recorded for an inactive exercise")
	}
}

func TestSubmitRejectsLockedLevel(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	exercises, answers := challengeExercise(2)
	exercises.exercise.RequiredLevel = 5
	svc := newTestService(store, exercises, nil)

	if _, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers}); !errors.Is(err, util.ErrLevelLocked) {
		t.Fatalf("expected ErrLevelLocked, got %v", err)
	}
}

func TestSpeakingGraderDownRecordsPendingAttempt(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	exercises := &fakeExercises{
		exercise: &model.Exercise{
			BaseModel:       model.BaseModel{ID: 1},
			Type:            model.ExerciseSpeaking,
			PassingScore:    60,
			PointsReward:    100,
			RequiredLevel:   1,
			Active:          true,
			ReferenceAnswer: "I went to the market yesterday.",
		},
	}
	svc := newTestService(store, exercises, &fakeSpeaking{err: errors.New("upstream timeout")})

	result, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{SpokenResponse: "I go to market yesterday"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if result.Status != model.AttemptPending {
		t.Fatalf("expected pending status, got %q", result.Status)
	}
	if result.PointsEarned != 0 || store.users[1].TotalPoints != 0 {
		t.Fatal("pending attempts must not touch the ledger")
	}
	if len(store.attempts) != 1 {
		t.Fatalf("the submission must not be lost, got %d attempts", len(store.attempts))
	}
}

func TestSpeakingGraderScoresAttempt(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	exercises := &fakeExercises{
		exercise: &model.Exercise{
			BaseModel:       model.BaseModel{ID: 1},
			Type:            model.ExerciseSpeaking,
			PassingScore:    60,
			PointsReward:    80,
			RequiredLevel:   1,
			Active:          true,
			ReferenceAnswer: "I went to the market yesterday.",
		},
	}
	svc := newTestService(store, exercises, &fakeSpeaking{score: 85, feedback: "Good tense usage."})

	result, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{SpokenResponse: "I went to the market yesterday"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if result.Status != model.AttemptScored || result.Score != 85 || !result.Passed {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.PointsEarned != 80 {
		t.Fatalf("expected full reward 80, got %d", result.PointsEarned)
	}
	if result.Feedback != "Good tense usage." {
		t.Fatalf("feedback not carried through: %q", result.Feedback)
	}
}

func TestConcurrentSubmissionsLoseNoPoints(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	exercises, answers := challengeExercise(2)
	exercises.exercise.PointsReward = 10
	svc := newTestService(store, exercises, nil)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers}); err != nil {
				t.Errorf("Submit: %v", err)
			}
		}()
	}
	wg.Wait()

	u := store.users[1]
	if u.TotalPoints != n*10 {
		t.Fatalf("lost updates: expected %d points, got %d", n*10, u.TotalPoints)
	}
	if u.Level != (n*10)/scoring.PointsPerLevel+1 {
		t.Fatalf("level out of step with total: %d", u.Level)
	}
	if len(store.attempts) != n {
		t.Fatalf("expected %d attempts, got %d", n, len(store.attempts))
	}
}

func TestAttemptsAreAppendOnly(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	exercises, answers := challengeExercise(2)
	svc := newTestService(store, exercises, nil)

	first, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	wrong := []string{"x", "y"}
	if _, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: wrong}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(store.attempts) != 2 {
		t.Fatalf("expected 2 attempt rows, got %d", len(store.attempts))
	}

	original, err := store.FindByID(context.Background(), first.AttemptID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if original.Score != 100 || original.PointsEarned != first.PointsEarned {
		t.Fatalf("earlier attempt was mutated: %+v", original)
	}
}

func TestSubmitAwardsMilestoneBadges(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	exercises, answers := challengeExercise(2)
	svc := newTestService(store, exercises, nil)

	if _, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if !store.badges["1:first_attempt"] {
		t.Fatal("expected first_attempt badge")
	}
	if !store.badges["1:first_pass"] {
		t.Fatal("expected first_pass badge")
	}
	if store.badges["1:ten_attempts"] {
		t.Fatal("ten_attempts should not be awarded after one attempt")
	}
}

func TestStreakExtendsAcrossConsecutiveDays(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	exercises, answers := challengeExercise(2)
	svc := newTestService(store, exercises, nil)

	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return day }

	if _, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if store.users[1].Streak != 1 {
		t.Fatalf("expected streak 1, got %d", store.users[1].Streak)
	}

	// second submission on the same day does not double count
	if _, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if store.users[1].Streak != 1 {
		t.Fatalf("same-day activity must not extend the streak, got %d", store.users[1].Streak)
	}

	day = day.AddDate(0, 0, 1)
	if _, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if store.users[1].Streak != 2 {
		t.Fatalf("expected streak 2, got %d", store.users[1].Streak)
	}

	// a gap resets the streak
	day = day.AddDate(0, 0, 3)
	if _, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if store.users[1].Streak != 1 {
		t.Fatalf("expected streak reset to 1, got %d", store.users[1].Streak)
	}
}

func TestSubmitUnknownExercise(t *testing.T) {
	store := newFakeStore()
	seedUser(store, 1)
	svc := newTestService(store, &fakeExercises{}, nil)

	if _, err := svc.Submit(context.Background(), 1, 99, &SubmitRequest{}); !errors.Is(err, util.ErrExerciseNotFound) {
		t.Fatalf("expected ErrExerciseNotFound, got %v", err)
	}
}

func TestSubmitFailedInsertPropagatesError(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("connection refused")
	seedUser(store, 1)
	exercises, answers := challengeExercise(2)
	svc := newTestService(store, exercises, nil)

	_, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers})
	if !errors.Is(err, store.createErr) {
		t.Fatalf("expected the store error to propagate, got %v", err)
	}
	if errors.Is(err, util.ErrAttemptConflict) {
		t.Fatal("a plain persistence failure must not be reported as a conflict")
	}
}

func TestSubmitExhaustedRetriesSurfaceConflict(t *testing.T) {
	store := newFakeStore()
	store.createErr = util.ErrAttemptConflict
	seedUser(store, 1)
	exercises, answers := challengeExercise(2)
	svc := newTestService(store, exercises, nil)

	if _, err := svc.Submit(context.Background(), 1, 1, &SubmitRequest{Answers: answers}); !errors.Is(err, util.ErrAttemptConflict) {
		t.Fatalf("expected ErrAttemptConflict, got %v", err)
	}
}
