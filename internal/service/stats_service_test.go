package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/util"
)

// fakeLeaderboardUsers orders by total points descending with earlier
// creation winning ties, the same contract as the SQL store.
type fakeLeaderboardUsers struct {
	users []model.User
}

func (f *fakeLeaderboardUsers) FindTopByPoints(_ context.Context, limit int) ([]model.User, error) {
	sorted := make([]model.User, len(f.users))
	copy(sorted, f.users)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TotalPoints != sorted[j].TotalPoints {
			return sorted[i].TotalPoints > sorted[j].TotalPoints
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (f *fakeLeaderboardUsers) RankByPoints(_ context.Context, user *model.User) (int, error) {
	rank := 1
	for _, u := range f.users {
		if u.TotalPoints > user.TotalPoints {
			rank++
		} else if u.TotalPoints == user.TotalPoints && u.CreatedAt.Before(user.CreatedAt) {
			rank++
		}
	}
	return rank, nil
}

func (f *fakeLeaderboardUsers) FindByID(_ context.Context, id uint) (*model.User, error) {
	for i := range f.users {
		if f.users[i].ID == id {
			copied := f.users[i]
			return &copied, nil
		}
	}
	return nil, util.ErrUserNotFound
}

type fakeStatsAttempts struct {
	attempts int64
	passed   int64
	accuracy float64
}

func (f *fakeStatsAttempts) CountByUser(_ context.Context, _ uint) (int64, error) {
	return f.attempts, nil
}

func (f *fakeStatsAttempts) CountPassedDistinct(_ context.Context, _ uint) (int64, error) {
	return f.passed, nil
}

func (f *fakeStatsAttempts) AccuracyByUser(_ context.Context, _ uint) (float64, error) {
	return f.accuracy, nil
}

type fakeStatsBadges struct {
	badges []model.Badge
	counts map[uint]int64
}

func (f *fakeStatsBadges) ListByUser(_ context.Context, _ uint) ([]model.Badge, error) {
	return f.badges, nil
}

func (f *fakeStatsBadges) CountByUsers(_ context.Context, userIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(userIDs))
	for _, id := range userIDs {
		if n, ok := f.counts[id]; ok {
			counts[id] = n
		}
	}
	return counts, nil
}

type fakeStatsExercises struct {
	active int64
}

func (f *fakeStatsExercises) CountActive(_ context.Context) (int64, error) {
	return f.active, nil
}

func leaderboardFixture() *fakeLeaderboardUsers {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &fakeLeaderboardUsers{users: []model.User{
		{BaseModel: model.BaseModel{ID: 1, CreatedAt: base}, Name: "ana", TotalPoints: 900, Level: 2},
		{BaseModel: model.BaseModel{ID: 2, CreatedAt: base.Add(time.Hour)}, Name: "ben", TotalPoints: 1200, Level: 3},
		{BaseModel: model.BaseModel{ID: 3, CreatedAt: base.Add(2 * time.Hour)}, Name: "cleo", TotalPoints: 900, Level: 2},
		{BaseModel: model.BaseModel{ID: 4, CreatedAt: base.Add(3 * time.Hour)}, Name: "dee", TotalPoints: 100, Level: 1},
	}}
}

func TestLeaderboardOrderAndTieBreak(t *testing.T) {
	svc := NewStatsService(leaderboardFixture(), &fakeStatsAttempts{}, &fakeStatsBadges{}, &fakeStatsExercises{active: 10}, nil)

	entries, err := svc.Leaderboard(context.Background(), 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}

	wantOrder := []uint{2, 1, 3, 4}
	if len(entries) != len(wantOrder) {
		t.Fatalf("expected %d entries, got %d", len(wantOrder), len(entries))
	}
	for i, want := range wantOrder {
		if entries[i].UserID != want {
			t.Fatalf("position %d: expected user %d, got %d", i, want, entries[i].UserID)
		}
		if entries[i].Rank != i+1 {
			t.Fatalf("position %d: expected rank %d, got %d", i, i+1, entries[i].Rank)
		}
	}
}

func TestLeaderboardLimit(t *testing.T) {
	svc := NewStatsService(leaderboardFixture(), &fakeStatsAttempts{}, &fakeStatsBadges{}, &fakeStatsExercises{active: 10}, nil)

	entries, err := svc.Leaderboard(context.Background(), 2)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].UserID != 2 || entries[1].UserID != 1 {
		t.Fatalf("unexpected top two: %+v", entries)
	}
}

func TestLeaderboardIncludesBadgeCounts(t *testing.T) {
	badges := &fakeStatsBadges{counts: map[uint]int64{2: 5, 1: 2}}
	svc := NewStatsService(leaderboardFixture(), &fakeStatsAttempts{}, badges, &fakeStatsExercises{active: 10}, nil)

	entries, err := svc.Leaderboard(context.Background(), 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}

	wantCounts := map[uint]int64{2: 5, 1: 2, 3: 0, 4: 0}
	for _, e := range entries {
		if e.BadgeCount != wantCounts[e.UserID] {
			t.Fatalf("user %d: expected badge count %d, got %d", e.UserID, wantCounts[e.UserID], e.BadgeCount)
		}
	}
}

func TestUserStatsAggregation(t *testing.T) {
	users := leaderboardFixture()
	attempts := &fakeStatsAttempts{attempts: 42, passed: 7, accuracy: 81.5}
	badges := &fakeStatsBadges{badges: []model.Badge{
		{UserID: 3, Code: "first_attempt", Name: "First Steps"},
	}}
	svc := NewStatsService(users, attempts, badges, &fakeStatsExercises{active: 10}, nil)

	stats, err := svc.Stats(context.Background(), 3)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.TotalPoints != 900 || stats.Level != 2 {
		t.Fatalf("unexpected ledger state: %+v", stats)
	}
	// cleo ties ana on points but registered later, so ben and ana rank ahead
	if stats.Rank != 3 {
		t.Fatalf("expected rank 3, got %d", stats.Rank)
	}
	if stats.TotalAttempts != 42 || stats.ExercisesPassed != 7 {
		t.Fatalf("unexpected attempt aggregates: %+v", stats)
	}
	if stats.Accuracy != 81.5 {
		t.Fatalf("expected accuracy 81.5, got %v", stats.Accuracy)
	}
	if len(stats.Badges) != 1 || stats.Badges[0].Code != "first_attempt" {
		t.Fatalf("unexpected badges: %+v", stats.Badges)
	}
	// 7 of 10 active exercises passed
	if stats.CompletionPercentage != 70 {
		t.Fatalf("expected completion 70, got %v", stats.CompletionPercentage)
	}
}

func TestUserStatsCompletionWithNoActiveExercises(t *testing.T) {
	attempts := &fakeStatsAttempts{attempts: 3, passed: 2}
	svc := NewStatsService(leaderboardFixture(), attempts, &fakeStatsBadges{}, &fakeStatsExercises{active: 0}, nil)

	stats, err := svc.Stats(context.Background(), 1)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.CompletionPercentage != 0 {
		t.Fatalf("expected completion 0 with no active exercises, got %v", stats.CompletionPercentage)
	}
}

func TestUserStatsUnknownUser(t *testing.T) {
	svc := NewStatsService(leaderboardFixture(), &fakeStatsAttempts{}, &fakeStatsBadges{}, &fakeStatsExercises{active: 10}, nil)

	if _, err := svc.Stats(context.Background(), 99); err == nil {
		t.Fatal("expected error for unknown user")
	}
}
