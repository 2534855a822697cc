package repository

import (
	"context"
	"time"

	"lingua_edu_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

// Award inserts a badge if the user does not already hold it. The
// (user, code) unique index makes repeated awards no-ops, so milestone
// checks can run after every submission.
func (r *BadgeRepository) Award(ctx context.Context, userID uint, code, name string) error {
	badge := model.Badge{
		UserID:    userID,
		Code:      code,
		Name:      name,
		AwardedAt: time.Now(),
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&badge).Error
}

func (r *BadgeRepository) ListByUser(ctx context.Context, userID uint) ([]model.Badge, error) {
	var badges []model.Badge
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Find(&badges).Error
	return badges, err
}

// CountByUsers returns badge counts for a set of users in one query, keyed
// by user id. Users without badges are absent from the map.
func (r *BadgeRepository) CountByUsers(ctx context.Context, userIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		UserID uint
		N      int64
	}
	err := r.DB.WithContext(ctx).Model(&model.Badge{}).
		Select("user_id, COUNT(*) AS n").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.UserID] = row.N
	}
	return counts, nil
}
