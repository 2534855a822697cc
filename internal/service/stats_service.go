package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type LeaderboardStore interface {
	FindTopByPoints(ctx context.Context, limit int) ([]model.User, error)
	RankByPoints(ctx context.Context, user *model.User) (int, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

type StatsAttemptStore interface {
	CountByUser(ctx context.Context, userID uint) (int64, error)
	CountPassedDistinct(ctx context.Context, userID uint) (int64, error)
	AccuracyByUser(ctx context.Context, userID uint) (float64, error)
}

type StatsBadgeStore interface {
	ListByUser(ctx context.Context, userID uint) ([]model.Badge, error)
	CountByUsers(ctx context.Context, userIDs []uint) (map[uint]int64, error)
}

type StatsExerciseStore interface {
	CountActive(ctx context.Context) (int64, error)
}

type StatsService struct {
	Users     LeaderboardStore
	Attempts  StatsAttemptStore
	Badges    StatsBadgeStore
	Exercises StatsExerciseStore
	Redis     *redis.Client
}

func NewStatsService(users LeaderboardStore, attempts StatsAttemptStore, badges StatsBadgeStore, exercises StatsExerciseStore, rdb *redis.Client) *StatsService {
	return &StatsService{Users: users, Attempts: attempts, Badges: badges, Exercises: exercises, Redis: rdb}
}

// leaderboardTTL keeps the board a little stale rather than hammering the
// users table on every page view. There is no invalidation on submission.
const leaderboardTTL = 30 * time.Second

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      uint   `json:"userId"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar,omitempty"`
	TotalPoints int    `json:"totalPoints"`
	Level       int    `json:"level"`
	BadgeCount  int64  `json:"badgeCount"`
}

// Leaderboard returns the top users by total points, ties broken by earlier
// account creation. Results are cached in Redis for a short window; a cache
// failure falls through to the database.
func (s *StatsService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	cacheKey := fmt.Sprintf("leaderboard:top:%d", limit)
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var entries []LeaderboardEntry
			if err := json.Unmarshal([]byte(cached), &entries); err == nil {
				return entries, nil
			}
		}
	}

	users, err := s.Users.FindTopByPoints(ctx, limit)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uint, len(users))
	for i, u := range users {
		userIDs[i] = u.ID
	}
	badgeCounts, err := s.Badges.CountByUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = LeaderboardEntry{
			Rank:        i + 1,
			UserID:      u.ID,
			Name:        u.Name,
			Avatar:      u.Avatar,
			TotalPoints: u.TotalPoints,
			Level:       u.Level,
			BadgeCount:  badgeCounts[u.ID],
		}
	}

	if s.Redis != nil {
		if payload, err := json.Marshal(entries); err == nil {
			if err := s.Redis.Set(ctx, cacheKey, payload, leaderboardTTL).Err(); err != nil {
				logger.Log.Warn("caching leaderboard failed", zap.Error(err))
			}
		}
	}

	return entries, nil
}

type UserStats struct {
	TotalPoints     int   `json:"totalPoints"`
	Level           int   `json:"level"`
	Streak          int   `json:"streak"`
	Rank            int   `json:"rank"`
	TotalAttempts   int64 `json:"totalAttempts"`
	ExercisesPassed int64 `json:"exercisesPassed"`
	// CompletionPercentage is the share of active exercises the user has
	// passed at least once, 0-100.
	CompletionPercentage float64       `json:"completionPercentage"`
	Accuracy             float64       `json:"accuracy"`
	Badges               []model.Badge `json:"badges"`
}

// Stats aggregates one user's progress panel.
func (s *StatsService) Stats(ctx context.Context, userID uint) (*UserStats, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rank, err := s.Users.RankByPoints(ctx, user)
	if err != nil {
		return nil, err
	}

	attempts, err := s.Attempts.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	passed, err := s.Attempts.CountPassedDistinct(ctx, userID)
	if err != nil {
		return nil, err
	}

	accuracy, err := s.Attempts.AccuracyByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	activeExercises, err := s.Exercises.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	completion := 0.0
	if activeExercises > 0 {
		completion = 100 * float64(passed) / float64(activeExercises)
	}

	badges, err := s.Badges.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserStats{
		TotalPoints:          user.TotalPoints,
		Level:                user.Level,
		Streak:               user.Streak,
		Rank:                 rank,
		TotalAttempts:        attempts,
		ExercisesPassed:      passed,
		CompletionPercentage: completion,
		Accuracy:             accuracy,
		Badges:               badges,
	}, nil
}
