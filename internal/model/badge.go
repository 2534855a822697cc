package model

import "time"

// Badge is a milestone award. (user, code) is unique so re-checking
// milestones after every submission stays idempotent.
// swagger:model Badge
type Badge struct {
	BaseModel
	UserID    uint      `gorm:"uniqueIndex:idx_user_badge;type:bigint unsigned" json:"userId"`
	Code      string    `gorm:"size:50;uniqueIndex:idx_user_badge" json:"code"`
	Name      string    `gorm:"size:100" json:"name"`
	AwardedAt time.Time `json:"awardedAt"`
}

func (Badge) TableName() string {
	return "badges"
}
