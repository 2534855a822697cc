package model

import "time"

const (
	AttemptScored  = "scored"
	AttemptPending = "pending"
)

// Attempt is one user's scored submission against an exercise. Rows are
// append-only: nothing in the engine updates an attempt after creation. A
// pending attempt is the fallback when the speaking grader is unavailable.
// swagger:model Attempt
type Attempt struct {
	BaseModel
	UserID     uint `gorm:"index;type:bigint unsigned" json:"userId"`
	ExerciseID uint `gorm:"index;type:bigint unsigned" json:"exerciseId"`

	// Answers is the submitted answer list in question order, JSON-encoded.
	Answers string `gorm:"type:json" json:"answers"`

	Score          int  `json:"score"`
	Passed         bool `gorm:"default:false" json:"passed"`
	Completed      bool `gorm:"default:false" json:"completed"`
	PointsEarned   int  `json:"pointsEarned"`
	CorrectCount   int  `json:"correctCount"`
	TotalQuestions int  `json:"totalQuestions"`

	TimeSpentSeconds int       `json:"timeSpentSeconds"`
	Status           string    `gorm:"size:20;default:'scored';index" json:"status"`
	Feedback         string    `gorm:"type:text" json:"feedback,omitempty"`
	CompletedAt      time.Time `gorm:"index" json:"completedAt"`
}

func (Attempt) TableName() string {
	return "attempts"
}
