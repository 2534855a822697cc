package model

import "time"

type ExerciseType string

const (
	ExerciseChallenge ExerciseType = "challenge"
	ExerciseListening ExerciseType = "listening"
	ExerciseSpeaking  ExerciseType = "speaking"
)

// Exercise is a gradeable content item: a challenge, a listening exercise or a
// speaking exercise. Attempts are scored against the exercise state at
// submission time; published exercises should be edited by replacing their
// question set rather than mutating scored history.
// swagger:model Exercise
type Exercise struct {
	BaseModel
	Title       string       `gorm:"size:200;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Type        ExerciseType `gorm:"type:enum('challenge','listening','speaking');default:'challenge';index" json:"type"`

	// PassingScore is a percentage (0-100). Listening completion is gated by a
	// fixed threshold in the scoring package, not by this field.
	PassingScore  int  `gorm:"default:60" json:"passingScore"`
	PointsReward  int  `gorm:"default:0" json:"pointsReward"`
	RequiredLevel int  `gorm:"default:1" json:"requiredLevel"`
	Active        bool `gorm:"default:false;index" json:"active"`

	// AudioURL holds the listening clip; ReferenceAnswer is the model answer a
	// speaking response is graded against.
	AudioURL             string `gorm:"size:255" json:"audioUrl,omitempty"`
	AudioDurationSeconds int    `json:"audioDurationSeconds,omitempty"`
	ReferenceAnswer      string `gorm:"type:text" json:"referenceAnswer,omitempty"`

	TimeLimitSeconds int  `json:"timeLimitSeconds,omitempty"`
	CreatorID        uint `gorm:"index;type:bigint unsigned" json:"creatorId"`

	ScheduledPublishAt *time.Time `json:"scheduledPublishAt,omitempty"`
	PublishedAt        *time.Time `json:"publishedAt,omitempty"`

	Questions []Question `gorm:"foreignKey:ExerciseID" json:"questions,omitempty"`
}

func (Exercise) TableName() string {
	return "exercises"
}
