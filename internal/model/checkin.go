package model

import "time"

// Checkin records one day of learning activity; the streak counter on the
// user is derived from consecutive checkin days.
// swagger:model Checkin
type Checkin struct {
	BaseModel
	UserID    uint      `gorm:"index;type:bigint unsigned" json:"userId"`
	CheckinAt time.Time `gorm:"index" json:"checkinAt"`
}

func (Checkin) TableName() string {
	return "checkins"
}
