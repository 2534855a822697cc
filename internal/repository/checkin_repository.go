package repository

import (
	"context"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/util"

	"gorm.io/gorm"
)

type CheckinRepository struct {
	DB *gorm.DB
}

func NewCheckinRepository(db *gorm.DB) *CheckinRepository {
	return &CheckinRepository{DB: db}
}

// HasCheckinOn reports whether the user already has a checkin on the given
// calendar day.
func (r *CheckinRepository) HasCheckinOn(ctx context.Context, userID uint, day time.Time) (bool, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Checkin{}).
		Where("user_id = ? AND checkin_at >= ? AND checkin_at < ?", userID, start, end).
		Count(&count).Error
	return count > 0, err
}

func (r *CheckinRepository) Create(ctx context.Context, userID uint, at time.Time) error {
	return r.DB.WithContext(ctx).Create(&model.Checkin{
		UserID:    userID,
		CheckinAt: at,
	}).Error
}

// ListDays returns the user's checkin calendar days for a date range,
// formatted for the streak calendar view.
func (r *CheckinRepository) ListDays(ctx context.Context, userID uint, from, to time.Time) ([]string, error) {
	var checkins []model.Checkin
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND checkin_at >= ? AND checkin_at < ?", userID, from, to).
		Order("checkin_at ASC").
		Find(&checkins).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	days := make([]string, 0, len(checkins))
	for _, c := range checkins {
		day := c.CheckinAt.Format(util.DateFormat)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	return days, nil
}
